package cli

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"localboard/internal/config"
	"localboard/internal/export"
	"localboard/internal/state"
)

// testEnv writes a config pointing storage at a temp dir and returns its path.
func testEnv(t *testing.T, backend string) (cfgPath, dir string) {
	t.Helper()
	dir = t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Storage.Backend = backend
	cfg.Storage.Path = filepath.Join(dir, "boards")
	if backend == "sqlite" {
		cfg.Storage.Path = filepath.Join(dir, "boards.db")
	}
	cfg.Share.Host = "127.0.0.1"
	cfg.Logging.Level = "error"
	cfgPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, cfg.Save(cfgPath))
	return cfgPath, dir
}

func run(t *testing.T, app AppFunc, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeBoardFile(t *testing.T, dir string) string {
	t.Helper()
	b := state.BoardState{
		Elements: []state.Element{
			&state.Shape{Base: state.Base{ID: "A", StrokeColor: "#1e1e1e", StrokeWidth: 2}, Form: state.KindRectangle, X: 10, Y: 10, Width: 100, Height: 50},
			&state.Line{Base: state.Base{ID: "B", StrokeColor: "#e03131", StrokeWidth: 2}, Start: state.Point{X: 0, Y: 0}, End: state.Point{X: 80, Y: 40}, Arrow: true},
		},
		Camera: state.DefaultCamera(),
	}
	path := filepath.Join(dir, "in.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, export.WriteJSON(f, b))
	require.NoError(t, f.Close())
	return path
}

func TestImportThenExport(t *testing.T) {
	for _, backend := range []string{"file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			cfgPath, dir := testEnv(t, backend)
			in := writeBoardFile(t, dir)

			out, err := run(t, nil, "--config", cfgPath, "import", in)
			require.NoError(t, err)
			assert.Contains(t, out, "imported 2 elements")

			outDir := filepath.Join(dir, "out")
			out, err = run(t, nil, "--config", cfgPath, "export", "--format", "png,jpeg,pdf,json", "--out", outDir, "--fit")
			require.NoError(t, err)
			for _, name := range []string{"board.png", "board.jpg", "board.pdf", "board.json"} {
				info, err := os.Stat(filepath.Join(outDir, name))
				require.NoError(t, err, name)
				assert.Positive(t, info.Size(), name)
				assert.Contains(t, out, name)
			}

			f, err := os.Open(filepath.Join(outDir, "board.json"))
			require.NoError(t, err)
			defer f.Close()
			b, err := export.ReadJSON(f)
			require.NoError(t, err)
			require.Len(t, b.Elements, 2)
			assert.Equal(t, "A", b.Elements[0].Header().ID)
		})
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	cfgPath, dir := testEnv(t, "file")
	_, err := run(t, nil, "--config", cfgPath, "export", "--format", "svg", "--out", dir)
	assert.ErrorIs(t, err, export.ErrUnknownFormat)
}

func TestImportRejectsCorruptFile(t *testing.T) {
	cfgPath, dir := testEnv(t, "file")
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"elements":[{"type":"blob","id":"x"}]}`), 0o644))
	_, err := run(t, nil, "--config", cfgPath, "import", bad)
	assert.ErrorIs(t, err, state.ErrCorruptBoard)
}

func TestAddImage(t *testing.T) {
	cfgPath, dir := testEnv(t, "file")
	pic := filepath.Join(dir, "pic.png")
	f, err := os.Create(pic)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 800, 600))))
	require.NoError(t, f.Close())

	out, err := run(t, nil, "--config", cfgPath, "add-image", pic)
	require.NoError(t, err)
	assert.Contains(t, out, "400x300 at (100, 100)")

	_, err = run(t, nil, "--config", cfgPath, "add-image", pic)
	require.NoError(t, err)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	c := &cli{cfg: cfg, logger: zap.NewNop()}
	store, st, err := c.loadedStore(context.Background())
	require.NoError(t, err)
	defer st.Close()
	assert.Equal(t, 2, store.Len())
}

func TestShare(t *testing.T) {
	cfgPath, dir := testEnv(t, "file")
	qr := filepath.Join(dir, "qr.png")
	out, err := run(t, nil, "--config", cfgPath, "share", "--qr-png", qr)
	require.NoError(t, err)

	link := strings.SplitN(out, "\n", 2)[0]
	assert.True(t, strings.HasPrefix(link, "localboard://127.0.0.1:8888/?room="), link)
	_, err = os.Stat(qr)
	assert.NoError(t, err)

	again, err := run(t, nil, "--config", cfgPath, "share")
	require.NoError(t, err)
	assert.Equal(t, link, strings.SplitN(again, "\n", 2)[0], "room id must be reused across runs")
}

func TestRootRunsApp(t *testing.T) {
	cfgPath, dir := testEnv(t, "file")
	in := writeBoardFile(t, dir)
	_, err := run(t, nil, "--config", cfgPath, "import", in)
	require.NoError(t, err)

	var got *state.Store
	_, err = run(t, func(ctx context.Context, cfg *config.Config, store *state.Store, logger *zap.Logger, watchPath string) error {
		got = store
		assert.Empty(t, watchPath)
		return nil
	}, "--config", cfgPath)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "localboard", got.Location().Scheme)
}
