package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/photostudio/pkg/bitmap"
	"github.com/matzehuels/photostudio/pkg/document"
	"github.com/matzehuels/photostudio/pkg/editor"
	"github.com/matzehuels/photostudio/pkg/errors"
	"github.com/matzehuels/photostudio/pkg/genai"
	"github.com/matzehuels/photostudio/pkg/genai/genaitest"
	"github.com/matzehuels/photostudio/pkg/render"
	"github.com/matzehuels/photostudio/pkg/session"
)

type testServer struct {
	t    *testing.T
	srv  *httptest.Server
	ed   *editor.Editor
	fake *genaitest.Fake
}

func newTestServer(t *testing.T, opts ...Option) *testServer {
	t.Helper()
	fake := &genaitest.Fake{}
	ed, err := editor.New(editor.WithAI(fake), editor.WithSink(&render.MemorySink{}))
	require.NoError(t, err)
	srv := httptest.NewServer(New(ed, opts...).Handler())
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv, ed: ed, fake: fake}
}

func (ts *testServer) do(method, path string, body any) *http.Response {
	ts.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(ts.t, err)
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, rd)
	require.NoError(ts.t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(ts.t, err)
	ts.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (ts *testServer) decode(resp *http.Response, want int, v any) {
	ts.t.Helper()
	if resp.StatusCode != want {
		var e errorBody
		_ = json.NewDecoder(resp.Body).Decode(&e)
		ts.t.Fatalf("status = %d, want %d (%s: %s)", resp.StatusCode, want, e.Code, e.Error)
	}
	if v != nil {
		require.NoError(ts.t, json.NewDecoder(resp.Body).Decode(v))
	}
}

func (ts *testServer) errorCode(resp *http.Response, want int) errors.Code {
	ts.t.Helper()
	require.Equal(ts.t, want, resp.StatusCode)
	var e errorBody
	require.NoError(ts.t, json.NewDecoder(resp.Body).Decode(&e))
	return e.Code
}

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return bitmap.DataURL("image/png", buf.Bytes())
}

// setup creates a passport document with one 1200x1200 layer.
func (ts *testServer) setup() (*document.Document, document.Layer) {
	ts.t.Helper()
	var d document.Document
	ts.decode(ts.do(http.MethodPost, "/documents", createDocumentRequest{Preset: "Passport Size"}), http.StatusCreated, &d)
	var l document.Layer
	ts.decode(ts.do(http.MethodPost, "/documents/"+d.ID+"/layers",
		uploadRequest{Name: "me.png", Image: pngDataURL(ts.t, 1200, 1200)}), http.StatusCreated, &l)
	return &d, l
}

func TestHealthAndPresets(t *testing.T) {
	ts := newTestServer(t)
	ts.decode(ts.do(http.MethodGet, "/health", nil), http.StatusOK, nil)

	var cat struct {
		Pages []struct {
			Name string `json:"name"`
		} `json:"pages"`
	}
	ts.decode(ts.do(http.MethodGet, "/presets", nil), http.StatusOK, &cat)
	require.NotEmpty(t, cat.Pages)
	assert.Equal(t, "Passport Size", cat.Pages[0].Name)
}

func TestUploadAndList(t *testing.T) {
	ts := newTestServer(t)
	d, l := ts.setup()

	assert.Equal(t, 600, d.Width)
	assert.Equal(t, "me.png", l.Name)
	assert.InDelta(t, 480, l.Width, 1e-9)
	assert.InDelta(t, 60, l.X, 1e-9)

	var list documentsResponse
	ts.decode(ts.do(http.MethodGet, "/documents", nil), http.StatusOK, &list)
	assert.Equal(t, d.ID, list.ActiveID)
	require.Len(t, list.Documents, 1)
	assert.Equal(t, l.ID, list.Documents[0].SelectedLayerID)

	resp := ts.do(http.MethodGet, "/bitmaps/"+string(l.Bitmap), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestUploadRejectsBadImage(t *testing.T) {
	ts := newTestServer(t)
	d, _ := ts.setup()
	resp := ts.do(http.MethodPost, "/documents/"+d.ID+"/layers", uploadRequest{Name: "x", Image: "data:text/plain;base64,aGk="})
	assert.Equal(t, errors.ErrCodeInvalidImage, ts.errorCode(resp, http.StatusBadRequest))
}

func TestPatchLayer(t *testing.T) {
	ts := newTestServer(t)
	d, l := ts.setup()

	var got document.Layer
	ts.decode(ts.do(http.MethodPatch, "/documents/"+d.ID+"/layers/"+l.ID,
		map[string]any{"bg_color": "#0033aa", "opacity": 0.5}), http.StatusOK, &got)
	assert.Equal(t, "#0033aa", got.BgColor)
	assert.Equal(t, 0.5, got.Opacity)
	assert.Equal(t, l.X, got.X)

	resp := ts.do(http.MethodPatch, "/documents/"+d.ID+"/layers/"+l.ID, map[string]any{"bg_color": "mauve"})
	assert.Equal(t, errors.ErrCodeInvalidColor, ts.errorCode(resp, http.StatusBadRequest))

	resp = ts.do(http.MethodPatch, "/documents/"+d.ID+"/layers/nope", map[string]any{"opacity": 1})
	assert.Equal(t, errors.ErrCodeLayerNotFound, ts.errorCode(resp, http.StatusNotFound))
}

func TestGestures(t *testing.T) {
	ts := newTestServer(t)
	d, l := ts.setup()
	base := "/documents/" + d.ID + "/layers/" + l.ID

	var got document.Layer
	ts.decode(ts.do(http.MethodPost, base+"/drag", pointRequest{X: 10, Y: 20}), http.StatusOK, &got)
	assert.Equal(t, 10.0, got.X)
	assert.Equal(t, 20.0, got.Y)

	ts.decode(ts.do(http.MethodPost, base+"/transform",
		transformRequest{Anchor: editor.AnchorTopLeft, X: 5, Y: 5, ScaleX: 0.5, ScaleY: 0.5, Rotation: 45}), http.StatusOK, &got)
	assert.Equal(t, 0.5, got.ScaleX)
	assert.Equal(t, 45.0, got.Rotation)

	resp := ts.do(http.MethodPost, base+"/transform", transformRequest{Anchor: editor.AnchorMiddleLeft, ScaleX: 1, ScaleY: 1})
	assert.Equal(t, errors.ErrCodeInvalidAnchor, ts.errorCode(resp, http.StatusBadRequest))

	ts.decode(ts.do(http.MethodPut, "/ui/tool", toolRequest{Tool: "crop"}), http.StatusOK, nil)
	resp = ts.do(http.MethodPost, base+"/drag", pointRequest{X: 0, Y: 0})
	assert.Equal(t, errors.ErrCodeToolInactive, ts.errorCode(resp, http.StatusConflict))
}

func TestSelectAndDelete(t *testing.T) {
	ts := newTestServer(t)
	d, l := ts.setup()

	var sel selectedResponse
	ts.decode(ts.do(http.MethodPost, "/documents/"+d.ID+"/click", pointRequest{X: 1, Y: 1}), http.StatusOK, &sel)
	assert.Empty(t, sel.LayerID)
	ts.decode(ts.do(http.MethodPost, "/documents/"+d.ID+"/click", pointRequest{X: 300, Y: 300}), http.StatusOK, &sel)
	assert.Equal(t, l.ID, sel.LayerID)

	resp := ts.do(http.MethodPost, "/documents/"+d.ID+"/select", selectRequest{LayerID: "ghost"})
	assert.Equal(t, errors.ErrCodeLayerNotFound, ts.errorCode(resp, http.StatusNotFound))

	resp = ts.do(http.MethodDelete, "/documents/"+d.ID+"/layers/"+l.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = ts.do(http.MethodDelete, "/documents/"+d.ID+"/layers/"+l.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestConcurrentUploadsLandInAddressedDocument(t *testing.T) {
	ts := newTestServer(t)
	var a, b document.Document
	ts.decode(ts.do(http.MethodPost, "/documents", createDocumentRequest{Preset: "Passport Size"}), http.StatusCreated, &a)
	ts.decode(ts.do(http.MethodPost, "/documents", createDocumentRequest{Preset: "Passport Size"}), http.StatusCreated, &b)

	body, err := json.Marshal(uploadRequest{Name: "me.png", Image: pngDataURL(t, 20, 20)})
	require.NoError(t, err)

	const perDoc = 8
	var wg sync.WaitGroup
	statuses := make(chan int, 2*perDoc)
	for i := 0; i < 2*perDoc; i++ {
		id := a.ID
		if i%2 == 1 {
			id = b.ID
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(ts.srv.URL+"/documents/"+id+"/layers", "application/json", bytes.NewReader(body))
			if err != nil {
				statuses <- 0
				return
			}
			resp.Body.Close()
			statuses <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(statuses)
	for code := range statuses {
		assert.Equal(t, http.StatusCreated, code)
	}

	gotA, ok := ts.ed.Document(a.ID)
	require.True(t, ok)
	gotB, ok := ts.ed.Document(b.ID)
	require.True(t, ok)
	assert.Len(t, gotA.Layers, perDoc)
	assert.Len(t, gotB.Layers, perDoc)
}

func TestExport(t *testing.T) {
	ts := newTestServer(t)
	d, _ := ts.setup()

	resp := ts.do(http.MethodGet, "/export?format=png", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "1920x1920", resp.Header.Get("X-Export-Size"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Untitled-1_export.png")

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 1920, img.Bounds().Dx())

	ts.decode(ts.do(http.MethodPost, "/documents/"+d.ID+"/select", selectRequest{}), http.StatusOK, nil)
	resp = ts.do(http.MethodGet, "/export?format=jpg", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	assert.Equal(t, "2400x2400", resp.Header.Get("X-Export-Size"))

	resp = ts.do(http.MethodGet, "/export?format=gif", nil)
	assert.Equal(t, errors.ErrCodeInvalidFormat, ts.errorCode(resp, http.StatusBadRequest))
}

func TestExportWithoutDocument(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(http.MethodGet, "/export", nil)
	assert.Equal(t, errors.ErrCodeNoActiveDocument, ts.errorCode(resp, http.StatusConflict))
}

func TestAI(t *testing.T) {
	ts := newTestServer(t)
	_, l := ts.setup()

	var res editor.AIResult
	ts.decode(ts.do(http.MethodPost, "/ai/bg_remove", nil), http.StatusOK, &res)
	assert.False(t, res.Applied, "fake returns no image")
	assert.Equal(t, l.ID, res.LayerID)

	ts.decode(ts.do(http.MethodPost, "/ai/dress_change", aiRequest{Outfit: "casual"}), http.StatusOK, &res)
	edits := ts.fake.Edits()
	require.Len(t, edits, 2)
	assert.Equal(t, genai.ModeDressChange, edits[1].Mode)
	assert.NotEmpty(t, edits[1].Instruction)

	resp := ts.do(http.MethodPost, "/ai/sharpen", nil)
	assert.Equal(t, errors.ErrCodeInvalidInput, ts.errorCode(resp, http.StatusBadRequest))
}

func TestAIServiceFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.setup()
	ts.fake.EditFunc = genaitest.Failing(errors.New(errors.ErrCodeRateLimited, "slow down")).EditFunc

	resp := ts.do(http.MethodPost, "/ai/upscale", nil)
	assert.Equal(t, errors.ErrCodeRateLimited, ts.errorCode(resp, http.StatusTooManyRequests))
}

func TestMerge(t *testing.T) {
	ts := newTestServer(t)
	ts.setup()

	resp := ts.do(http.MethodPost, "/merge", nil)
	assert.Equal(t, errors.ErrCodeMergeIncomplete, ts.errorCode(resp, http.StatusConflict))

	var ui editor.UIState
	ts.decode(ts.do(http.MethodPut, "/merge/slots/1", slotRequest{Image: pngDataURL(t, 4, 4)}), http.StatusOK, &ui)
	ts.decode(ts.do(http.MethodPut, "/merge/slots/2", slotRequest{Image: pngDataURL(t, 4, 4)}), http.StatusOK, &ui)
	assert.Equal(t, [2]bool{true, true}, ui.MergeSlots)

	out := genai.NewImage(mustPNG(t))
	ts.fake.MergeFunc = genaitest.Returning(&out).MergeFunc
	var res editor.AIResult
	ts.decode(ts.do(http.MethodPost, "/merge", nil), http.StatusOK, &res)
	assert.True(t, res.Applied)

	d, ok := ts.ed.Active()
	require.True(t, ok)
	l, ok := d.Layer(res.LayerID)
	require.True(t, ok)
	assert.Equal(t, editor.MergedLayerName, l.Name)

	resp = ts.do(http.MethodPut, "/merge/slots/3", slotRequest{Image: pngDataURL(t, 4, 4)})
	assert.Equal(t, errors.ErrCodeInvalidInput, ts.errorCode(resp, http.StatusBadRequest))
}

func TestSessions(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(http.MethodGet, "/sessions", nil)
	assert.Equal(t, errors.ErrCodeUnsupported, ts.errorCode(resp, http.StatusNotImplemented))

	store, err := session.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ts = newTestServer(t, WithSessions(store))
	d, _ := ts.setup()

	var sum session.Summary
	ts.decode(ts.do(http.MethodPost, "/sessions/work", nil), http.StatusCreated, &sum)
	assert.Equal(t, 1, sum.Documents)
	assert.Equal(t, 1, sum.Layers)

	resp = ts.do(http.MethodDelete, "/documents/"+d.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	var list documentsResponse
	ts.decode(ts.do(http.MethodPost, "/sessions/work/restore", nil), http.StatusOK, &list)
	require.Len(t, list.Documents, 1)
	assert.Equal(t, d.ID, list.Documents[0].ID)

	resp = ts.do(http.MethodPost, "/sessions/missing/restore", nil)
	assert.Equal(t, errors.ErrCodeSessionNotFound, ts.errorCode(resp, http.StatusNotFound))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeInvalidColor, http.StatusBadRequest},
		{errors.ErrCodeBusy, http.StatusConflict},
		{errors.ErrCodeDocumentNotFound, http.StatusNotFound},
		{errors.ErrCodeTimeout, http.StatusGatewayTimeout},
		{errors.ErrCodeNetwork, http.StatusBadGateway},
		{errors.ErrCodeUnauthorized, http.StatusServiceUnavailable},
		{errors.ErrCodeInternal, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.code); got != tt.want {
			t.Errorf("statusFor(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func mustPNG(t *testing.T) []byte {
	t.Helper()
	_, data, err := bitmap.ParseDataURL(pngDataURL(t, 20, 10))
	require.NoError(t, err)
	return data
}
