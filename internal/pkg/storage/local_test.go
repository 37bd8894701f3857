package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "upload/ab/file.txt", bytes.NewBufferString("hello")))

	rc, err := store.Get(ctx, "upload/ab/file.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, store.Delete(ctx, "upload/ab/file.txt"))
	require.NoError(t, store.Delete(ctx, "upload/ab/file.txt"), "deleting a missing file is not an error")

	_, err = store.Get(ctx, "upload/ab/file.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	err = store.Save(context.Background(), "../escape.txt", bytes.NewBufferString("x"))
	assert.Error(t, err)
}

func TestImageProcessor(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 800, 400))
	for x := 0; x < 800; x++ {
		src.Set(x, 10, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	p := NewImageProcessor()

	w, h, err := p.Dimensions(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 800, w)
	assert.Equal(t, 400, h)

	thumb, err := p.GenerateThumbnail(bytes.NewReader(buf.Bytes()), 200, 200)
	require.NoError(t, err)

	img, _, err := image.Decode(thumb)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())

	_, err = p.GenerateThumbnail(bytes.NewBufferString("not an image"), 10, 10)
	assert.ErrorIs(t, err, ErrNotAnImage)
}
