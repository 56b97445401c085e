package buffer_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldbrewio/iobuf/buffer"
	"github.com/coldbrewio/iobuf/segment"
)

func TestReadIntTwice(t *testing.T) {
	b := buffer.New()
	_, err := b.Append([]byte{0xab, 0xcd, 0xef, 0x01, 0x87, 0x65, 0x43, 0x21})
	require.NoError(t, err)

	v1, err := b.ReadInt()
	require.NoError(t, err)
	require.EqualValues(t, 0xabcdef01, uint32(v1))

	v2, err := b.ReadInt()
	require.NoError(t, err)
	require.EqualValues(t, 0x87654321, uint32(v2))

	require.Zero(t, b.Size())
}

func TestStringSmallIsHex(t *testing.T) {
	b := buffer.New()
	_, err := b.Append([]byte("hello"))
	require.NoError(t, err)

	require.Equal(t, "Buffer[size=5 data=68656c6c6f]", b.String())
}

func TestStringLargeIsMD5(t *testing.T) {
	b := buffer.New()
	_, err := b.Append(bytes.Repeat([]byte{'a'}, 17))
	require.NoError(t, err)

	s := b.String()
	require.True(t, strings.HasPrefix(s, "Buffer[size=17 md5="))
	require.True(t, strings.HasSuffix(s, "]"))
}

func TestStringEmpty(t *testing.T) {
	require.Equal(t, "Buffer[size=0]", buffer.New().String())
}

func TestCloneIsIndependent(t *testing.T) {
	b := buffer.New()
	_, err := b.Append([]byte("original"))
	require.NoError(t, err)

	clone := b.Clone()

	_, err = b.Append([]byte(" more"))
	require.NoError(t, err)

	got, err := clone.ReadUTF8All()
	require.NoError(t, err)
	require.Equal(t, "original", got)

	got2, err := b.ReadUTF8All()
	require.NoError(t, err)
	require.Equal(t, "original more", got2)
}

func TestWriteSpliceAccounting(t *testing.T) {
	src := buffer.New()
	payload := bytes.Repeat([]byte{'x'}, segment.Size*3+17)
	_, err := src.Append(payload)
	require.NoError(t, err)

	dst := buffer.New()
	srcSize := src.Size()

	err = dst.Write(src, srcSize)
	require.NoError(t, err)

	require.Zero(t, src.Size())
	require.Equal(t, int64(len(payload)), dst.Size())

	got, err := dst.ReadByteArrayAll()
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestWriteSplicePartialSegment(t *testing.T) {
	src := buffer.New()
	_, err := src.Append(bytes.Repeat([]byte{'y'}, segment.Size+100))
	require.NoError(t, err)

	dst := buffer.New()
	err = dst.Write(src, 50)
	require.NoError(t, err)

	require.Equal(t, int64(50), dst.Size())
	require.Equal(t, int64(segment.Size+50), src.Size())

	rest, err := src.ReadByteArrayAll()
	require.NoError(t, err)
	require.Len(t, rest, segment.Size+50)
}

func TestIndexOf(t *testing.T) {
	b := buffer.New()
	_, err := b.Append([]byte("the quick brown fox"))
	require.NoError(t, err)

	require.EqualValues(t, 4, b.IndexOf('q', 0))
	require.EqualValues(t, -1, b.IndexOf('z', 0))
	require.EqualValues(t, -1, b.IndexOf('q', 5))
}

func TestEqualAcrossDifferentSegmentation(t *testing.T) {
	a := buffer.New()
	_, err := a.Append([]byte("abcdef"))
	require.NoError(t, err)

	b := buffer.New()
	_, err = b.Append([]byte("abc"))
	require.NoError(t, err)
	_, err = b.Append([]byte("def"))
	require.NoError(t, err)

	require.True(t, a.Equal(b))
	require.Equal(t, a.HashCode(), b.HashCode())
}

func TestReadFromSourceExhausted(t *testing.T) {
	src := buffer.FromReader(strings.NewReader("abc"))
	sink := buffer.New()

	n, err := sink.WriteAll(src)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	got, err := sink.ReadUTF8All()
	require.NoError(t, err)
	require.Equal(t, "abc", got)
}

func TestBufferedSourceRequireAndReadByte(t *testing.T) {
	src := buffer.NewBufferedSource(buffer.FromReader(strings.NewReader("Z")))

	c, err := src.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte('Z'), c)

	_, err = src.ReadByte()
	require.ErrorIs(t, err, buffer.ErrEndOfData)
}

func TestBufferedSourceReadAll(t *testing.T) {
	var w bytes.Buffer
	src := buffer.NewBufferedSource(buffer.FromReader(strings.NewReader("abcdefg")))
	sink := buffer.FromWriter(&w)

	n, err := src.ReadAll(sink)
	require.NoError(t, err)
	require.EqualValues(t, 7, n)
	require.Equal(t, "abcdefg", w.String())
}

func TestBufferedSinkFlushesCompleteSegments(t *testing.T) {
	var w bytes.Buffer
	sink := buffer.NewBufferedSink(buffer.FromWriter(&w))

	_, err := sink.Append(bytes.Repeat([]byte{'q'}, segment.Size))
	require.NoError(t, err)
	require.Equal(t, segment.Size, w.Len())

	_, err = sink.Append([]byte("tail"))
	require.NoError(t, err)
	require.Equal(t, segment.Size, w.Len())

	require.NoError(t, sink.Close())
	require.Equal(t, segment.Size+4, w.Len())
}

func TestWriteStringUTF32(t *testing.T) {
	b := buffer.New()
	require.NoError(t, b.WriteString("AB", buffer.CharsetUTF32))
	require.EqualValues(t, 8, b.Size())

	v1, err := b.ReadInt()
	require.NoError(t, err)
	require.EqualValues(t, 'A', v1)
}

func TestWriteStringUnsupportedCharset(t *testing.T) {
	b := buffer.New()
	err := b.WriteString("x", "utf-16")
	require.ErrorIs(t, err, buffer.ErrUnsupported)
}

func TestSkipUnderflow(t *testing.T) {
	b := buffer.New()
	_, err := b.Append([]byte("ab"))
	require.NoError(t, err)

	err = b.Skip(5)
	require.ErrorIs(t, err, buffer.ErrEndOfData)
}

func TestGetByteOutOfRange(t *testing.T) {
	b := buffer.New()
	_, err := b.Append([]byte("ab"))
	require.NoError(t, err)

	_, err = b.GetByte(5)
	require.ErrorIs(t, err, buffer.ErrOutOfRange)
}
