package fstream_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jbvmio/fstream"
	"github.com/jbvmio/fstream/pipeline"
)

func gz(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func gunzip(t *testing.T, b []byte) string {
	t.Helper()
	r, err := gzip.NewReader(bytes.NewReader(b))
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func stdinConfig() fstream.Configuration {
	cfg := fstream.NewConfiguration()
	cfg.Input = fstream.InputStdin
	cfg.Output = fstream.OutputStdout
	return cfg
}

func runStdin(t *testing.T, cfg fstream.Configuration, in []byte) ([]byte, error) {
	t.Helper()
	var out bytes.Buffer
	err := fstream.Run(context.Background(), cfg,
		fstream.WithStdin(bytes.NewReader(in)),
		fstream.WithStdout(&out),
	)
	return out.Bytes(), err
}

func TestScenarioA_FileToFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(in, []byte("hello world"), 0644))

	cfg := fstream.NewConfiguration()
	cfg.Input = fstream.InputFile
	cfg.FilePath = in
	cfg.OutputPath = fstream.DefaultOutputPath(dir, false)
	require.NoError(t, fstream.Run(context.Background(), cfg))

	b, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	require.Equal(t, "HELLO WORLD", string(b))
}

func TestScenarioB_StdinToStdout(t *testing.T) {
	out, err := runStdin(t, stdinConfig(), []byte("abc"))
	require.NoError(t, err)
	require.Equal(t, "ABC", string(out))
}

func TestScenarioC_Compress(t *testing.T) {
	cfg := stdinConfig()
	cfg.Compress = true
	out, err := runStdin(t, cfg, []byte("abc"))
	require.NoError(t, err)
	require.Equal(t, "ABC", gunzip(t, out))
}

func TestScenarioD_Decompress(t *testing.T) {
	cfg := stdinConfig()
	cfg.Decompress = true
	out, err := runStdin(t, cfg, gz(t, "ABC"))
	require.NoError(t, err)
	require.Equal(t, "ABC", string(out))
}

func TestScenarioE_MissingFile(t *testing.T) {
	dir := t.TempDir()
	cfg := fstream.NewConfiguration()
	cfg.Input = fstream.InputFile
	cfg.FilePath = filepath.Join(dir, "missing.txt")
	cfg.OutputPath = fstream.DefaultOutputPath(dir, false)

	p, err := fstream.NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	err = p.Run()
	require.ErrorIs(t, err, pipeline.ErrSourceUnavailable)
	require.Equal(t, pipeline.Failed, p.State())

	_, err = os.Stat(cfg.OutputPath)
	require.True(t, os.IsNotExist(err))
}

func TestRoundTrip(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 5000)
	cfg := stdinConfig()
	cfg.Compress = true
	compressed, err := runStdin(t, cfg, []byte(text))
	require.NoError(t, err)

	cfg = stdinConfig()
	cfg.Decompress = true
	out, err := runStdin(t, cfg, compressed)
	require.NoError(t, err)
	require.Equal(t, strings.ToUpper(text), string(out))
}

func TestTransformPreservesLength(t *testing.T) {
	in := []byte("Mixed CASE input, with digits 0123 and tabs\t!\n")
	out, err := runStdin(t, stdinConfig(), in)
	require.NoError(t, err)
	require.Len(t, out, len(in))
	require.Equal(t, strings.ToUpper(string(in)), string(out))
}

func TestIdempotent(t *testing.T) {
	once, err := runStdin(t, stdinConfig(), []byte("Hello, World"))
	require.NoError(t, err)
	twice, err := runStdin(t, stdinConfig(), once)
	require.NoError(t, err)
	require.Equal(t, once, twice)
}

func TestChunkSizeIndependence(t *testing.T) {
	for name, text := range map[string]string{
		"ascii":   "hello world, hello pipeline",
		"unicode": "héllo wörld, ünïcode ßtreams",
	} {
		for _, mode := range []string{"ascii", "unicode"} {
			t.Run(name+"/"+mode, func(t *testing.T) {
				whole := stdinConfig()
				whole.CaseMode = mode
				expected, err := runStdin(t, whole, []byte(text))
				require.NoError(t, err)

				small := whole
				small.ChunkSize = 1
				got, err := runStdin(t, small, []byte(text))
				require.NoError(t, err)
				require.Equal(t, string(expected), string(got))
			})
		}
	}
}

func TestCaseModes(t *testing.T) {
	cfg := stdinConfig()
	out, err := runStdin(t, cfg, []byte("héllo wörld"))
	require.NoError(t, err)
	require.Equal(t, "HéLLO WöRLD", string(out))

	cfg.CaseMode = "unicode"
	out, err = runStdin(t, cfg, []byte("héllo wörld"))
	require.NoError(t, err)
	require.Equal(t, "HÉLLO WÖRLD", string(out))
}

func TestEmptyInput(t *testing.T) {
	for name, cfg := range map[string]func(fstream.Configuration) fstream.Configuration{
		"plain": func(c fstream.Configuration) fstream.Configuration {
			return c
		},
		"decompress": func(c fstream.Configuration) fstream.Configuration {
			c.Decompress = true
			return c
		},
	} {
		t.Run(name, func(t *testing.T) {
			out, err := runStdin(t, cfg(stdinConfig()), nil)
			require.NoError(t, err)
			require.Empty(t, out)
		})
	}

	cfg := stdinConfig()
	cfg.Compress = true
	out, err := runStdin(t, cfg, nil)
	require.NoError(t, err)
	require.Equal(t, "", gunzip(t, out))
}

func TestDecodeErrorWritesNothing(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt.gz")
	require.NoError(t, os.WriteFile(in, []byte("this is not gzip data"), 0644))

	cfg := fstream.NewConfiguration()
	cfg.Input = fstream.InputFile
	cfg.FilePath = in
	cfg.Decompress = true
	cfg.OutputPath = fstream.DefaultOutputPath(dir, false)

	p, err := fstream.NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	require.ErrorIs(t, p.Run(), pipeline.ErrDecode)
	require.Equal(t, pipeline.Failed, p.State())

	b, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	require.Empty(t, b)
}

func TestBuilderSlots(t *testing.T) {
	cases := map[string]struct {
		decompress, compress bool
		names                []string
	}{
		"plain":      {names: []string{"source", "transform", "sink"}},
		"decompress": {decompress: true, names: []string{"source", "decompress", "transform", "sink"}},
		"compress":   {compress: true, names: []string{"source", "transform", "compress", "sink"}},
		"both":       {decompress: true, compress: true, names: []string{"source", "decompress", "transform", "compress", "sink"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := stdinConfig()
			cfg.Decompress = tc.decompress
			cfg.Compress = tc.compress
			p, err := fstream.NewBuilder(cfg).Build(context.Background())
			require.NoError(t, err)
			require.Equal(t, pipeline.Assembled, p.State())
			var names []string
			for _, s := range p.Stages {
				names = append(names, s.Name)
			}
			require.Equal(t, tc.names, names)
		})
	}
}

func TestBuildErrors(t *testing.T) {
	_, err := fstream.NewBuilder(fstream.NewConfiguration()).Build(context.Background())
	require.ErrorIs(t, err, fstream.ErrUsage)

	cfg := stdinConfig()
	cfg.Compress = true
	cfg.Level = 42
	_, err = fstream.NewBuilder(cfg).Build(context.Background())
	require.EqualError(t, err, "invalid compression level: 42")
}

func TestRunTwice(t *testing.T) {
	var out bytes.Buffer
	p, err := fstream.NewBuilder(stdinConfig(),
		fstream.WithStdin(strings.NewReader("abc")),
		fstream.WithStdout(&out),
	).Build(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Run())
	require.Equal(t, pipeline.Completed, p.State())
	require.ErrorIs(t, p.Run(), pipeline.ErrNotAssembled)
	require.Equal(t, "ABC", out.String())
}
