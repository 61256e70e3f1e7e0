package bitmap

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/matzehuels/photostudio/pkg/errors"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	t.Run("png", func(t *testing.T) {
		info, err := Decode(encodePNG(t, 120, 80))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if info.Format != "png" || info.Width != 120 || info.Height != 80 {
			t.Errorf("Decode() = %+v, want png 120x80", info)
		}
		if info.MimeType() != "image/png" {
			t.Errorf("MimeType() = %v, want image/png", info.MimeType())
		}
	})

	t.Run("jpeg", func(t *testing.T) {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 9)), nil); err != nil {
			t.Fatal(err)
		}
		info, err := Decode(buf.Bytes())
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if info.Format != "jpeg" || info.Width != 16 || info.Height != 9 {
			t.Errorf("Decode() = %+v, want jpeg 16x9", info)
		}
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Decode(nil)
		if !errors.Is(err, errors.ErrCodeInvalidImage) {
			t.Errorf("Decode(nil) error = %v, want INVALID_IMAGE", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := Decode([]byte("definitely not an image"))
		if !errors.Is(err, errors.ErrCodeInvalidImage) {
			t.Errorf("Decode(garbage) error = %v, want INVALID_IMAGE", err)
		}
	})
}

func TestHash(t *testing.T) {
	a := Hash([]byte("abc"))
	b := Hash([]byte("abc"))
	c := Hash([]byte("abd"))
	if a != b {
		t.Errorf("Hash() not deterministic: %v != %v", a, b)
	}
	if a == c {
		t.Error("Hash() collided for different input")
	}
	if len(a) != 64 {
		t.Errorf("len(Hash()) = %d, want 64", len(a))
	}
	if len(a.String()) != 12 {
		t.Errorf("len(Ref.String()) = %d, want 12", len(a.String()))
	}
}

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	data := encodePNG(t, 4, 4)

	ref, err := s.Put(ctx, data)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	again, err := s.Put(ctx, data)
	if err != nil {
		t.Fatalf("Put() second error = %v", err)
	}
	if ref != again {
		t.Errorf("Put() refs differ: %v != %v", ref, again)
	}

	got, err := s.Get(ctx, ref)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("Get() returned different bytes")
	}

	if err := s.Delete(ctx, ref); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, ref); err != ErrNotFound {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, ref); err != nil {
		t.Errorf("Delete() missing error = %v, want nil", err)
	}
	if _, err := s.Get(ctx, Ref("../../etc/passwd")); err != ErrNotFound {
		t.Errorf("Get(bogus) error = %v, want ErrNotFound", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	testStore(t, s)
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	testStore(t, s)
}

func TestDataURL(t *testing.T) {
	data := encodePNG(t, 2, 2)
	url := DataURL("image/png", data)

	mime, got, err := ParseDataURL(url)
	if err != nil {
		t.Fatalf("ParseDataURL() error = %v", err)
	}
	if mime != "image/png" {
		t.Errorf("mime = %v, want image/png", mime)
	}
	if !bytes.Equal(got, data) {
		t.Error("ParseDataURL() bytes differ")
	}

	bad := []string{
		"",
		"http://example.com/a.png",
		"data:image/png;base64",
		"data:image/png,raw",
		"data:image/png;base64,!!!",
	}
	for _, s := range bad {
		if _, _, err := ParseDataURL(s); !errors.Is(err, errors.ErrCodeInvalidImage) {
			t.Errorf("ParseDataURL(%q) error = %v, want INVALID_IMAGE", s, err)
		}
	}
}
