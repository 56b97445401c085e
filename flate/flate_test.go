package flate_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldbrewio/iobuf/buffer"
	"github.com/coldbrewio/iobuf/flate"
)

func TestInflateDeflateRoundTrip(t *testing.T) {
	plaintext := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 500)

	var compressed bytes.Buffer

	sink, err := flate.NewDeflaterSink(buffer.FromWriter(&compressed), -1)
	require.NoError(t, err)

	in := buffer.New()
	_, err = in.Append(plaintext)
	require.NoError(t, err)

	require.NoError(t, sink.Write(in, in.Size()))
	require.NoError(t, sink.Close())

	require.Less(t, compressed.Len(), len(plaintext))

	src := buffer.NewBufferedSource(buffer.FromReader(bytes.NewReader(compressed.Bytes())))
	inflater := flate.NewInflaterSource(context.Background(), src)

	out := buffer.New()
	_, err = out.WriteAll(inflater)
	require.NoError(t, err)

	got, err := out.ReadByteArrayAll()
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestInflateTruncatedStreamFails(t *testing.T) {
	plaintext := []byte("some compressible text some compressible text some compressible text")

	var compressed bytes.Buffer
	sink, err := flate.NewDeflaterSink(buffer.FromWriter(&compressed), -1)
	require.NoError(t, err)

	in := buffer.New()
	_, err = in.Append(plaintext)
	require.NoError(t, err)
	require.NoError(t, sink.Write(in, in.Size()))
	require.NoError(t, sink.Close())

	truncated := compressed.Bytes()[:compressed.Len()-2]

	src := buffer.NewBufferedSource(buffer.FromReader(bytes.NewReader(truncated)))
	inflater := flate.NewInflaterSource(context.Background(), src)

	out := buffer.New()
	_, err = out.WriteAll(inflater)
	require.ErrorIs(t, err, buffer.ErrEndOfData)
}
