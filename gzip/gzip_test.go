package gzip_test

import (
	"bytes"
	"context"
	"testing"

	stdgzip "compress/gzip"

	"github.com/stretchr/testify/require"

	"github.com/coldbrewio/iobuf/buffer"
	"github.com/coldbrewio/iobuf/gzip"
)

func TestGzipRoundTrip(t *testing.T) {
	plaintext := "It's a UNIX system! I know this!"

	var compressed bytes.Buffer

	sink, err := gzip.NewGzipSink(buffer.FromWriter(&compressed), -1)
	require.NoError(t, err)

	in := buffer.New()
	_, err = in.WriteUTF8(plaintext)
	require.NoError(t, err)

	require.NoError(t, sink.Write(in, in.Size()))
	require.NoError(t, sink.Close())

	src := buffer.NewBufferedSource(buffer.FromReader(bytes.NewReader(compressed.Bytes())))
	source := gzip.NewGzipSource(context.Background(), src)

	out := buffer.New()
	_, err = out.WriteAll(source)
	require.NoError(t, err)

	got, err := out.ReadUTF8All()
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestGzipSourceReadsStandardLibraryGzip(t *testing.T) {
	plaintext := []byte("interoperate with the standard library's gzip writer")

	var compressed bytes.Buffer
	w := stdgzip.NewWriter(&compressed)
	_, err := w.Write(plaintext)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	src := buffer.NewBufferedSource(buffer.FromReader(bytes.NewReader(compressed.Bytes())))
	source := gzip.NewGzipSource(context.Background(), src)

	out := buffer.New()
	_, err = out.WriteAll(source)
	require.NoError(t, err)

	got, err := out.ReadByteArrayAll()
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestGzipCRCMismatchFails(t *testing.T) {
	var compressed bytes.Buffer

	sink, err := gzip.NewGzipSink(buffer.FromWriter(&compressed), -1)
	require.NoError(t, err)

	in := buffer.New()
	_, err = in.WriteUTF8("corrupt me")
	require.NoError(t, err)
	require.NoError(t, sink.Write(in, in.Size()))
	require.NoError(t, sink.Close())

	corrupted := compressed.Bytes()
	corrupted[len(corrupted)-5] ^= 0xff

	src := buffer.NewBufferedSource(buffer.FromReader(bytes.NewReader(corrupted)))
	source := gzip.NewGzipSource(context.Background(), src)

	out := buffer.New()
	_, err = out.WriteAll(source)
	require.Error(t, err)
}
