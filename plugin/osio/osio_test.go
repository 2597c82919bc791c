package osio_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jbvmio/fstream/pipeline"
	"github.com/jbvmio/fstream/plugin/osio"
)

func collect(out *[]string) pipeline.Emit {
	return func(c pipeline.Chunk) error {
		*out = append(*out, string(c))
		return nil
	}
}

func feed(chunks ...string) <-chan pipeline.Chunk {
	in := make(chan pipeline.Chunk, len(chunks))
	for _, c := range chunks {
		in <- pipeline.Chunk(c)
	}
	close(in)
	return in
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFileInput_ReadsInChunks(t *testing.T) {
	path := writeFile(t, "in.txt", "hello world")
	in := &osio.FileInput{Path: path, ChunkSize: 4}
	require.NoError(t, in.Start())
	defer in.Stop()

	var out []string
	require.NoError(t, in.Produce(context.Background(), collect(&out)))
	require.Equal(t, []string{"hell", "o wo", "rld"}, out)
}

func TestFileInput_Unavailable(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.txt")
	for name, path := range map[string]string{
		"missing":   missing,
		"directory": t.TempDir(),
	} {
		t.Run(name, func(t *testing.T) {
			in := &osio.FileInput{Path: path}
			err := in.Start()
			require.ErrorIs(t, err, pipeline.ErrSourceUnavailable)
			var se *pipeline.StageError
			require.ErrorAs(t, err, &se)
			require.Equal(t, path, se.Path)
			require.NoError(t, in.Stop())
		})
	}
}

func TestFileInput_StopIsIdempotent(t *testing.T) {
	in := &osio.FileInput{Path: writeFile(t, "in.txt", "x")}
	require.NoError(t, in.Start())
	require.NoError(t, in.Stop())
	require.NoError(t, in.Stop())
}

func TestFileInput_ReadAfterStop(t *testing.T) {
	in := &osio.FileInput{Path: writeFile(t, "in.txt", "x")}
	require.NoError(t, in.Start())
	require.NoError(t, in.Stop())
	err := in.Produce(context.Background(), func(pipeline.Chunk) error { return nil })
	require.ErrorIs(t, err, pipeline.ErrSourceUnavailable)
}

func TestStdInput_Reads(t *testing.T) {
	in := &osio.StdInput{Reader: strings.NewReader("abc"), ChunkSize: 2}
	require.NoError(t, in.Start())
	var out []string
	require.NoError(t, in.Produce(context.Background(), collect(&out)))
	require.NoError(t, in.Stop())
	require.Equal(t, []string{"ab", "c"}, out)
}

func TestFileOutput_TruncatesAndWrites(t *testing.T) {
	path := writeFile(t, "out.txt", "old content that is longer")
	out := &osio.FileOutput{Path: path}
	require.NoError(t, out.Start())
	require.NoError(t, out.Consume(context.Background(), feed("HELLO", " ", "WORLD")))
	require.NoError(t, out.Stop())
	require.NoError(t, out.Stop())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "HELLO WORLD", string(b))
}

func TestFileOutput_Unavailable(t *testing.T) {
	out := &osio.FileOutput{Path: filepath.Join(t.TempDir(), "no", "such", "dir", "out.txt")}
	err := out.Start()
	require.ErrorIs(t, err, pipeline.ErrSinkUnavailable)
	require.NoError(t, out.Stop())
}

func TestFileOutput_StopsWritingOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	out := &osio.FileOutput{Path: path}
	require.NoError(t, out.Start())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := out.Consume(ctx, feed("never"))
	require.ErrorIs(t, err, context.Canceled)
	require.NoError(t, out.Stop())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Empty(t, b)
}

type shortWriter struct{}

func (shortWriter) Write(b []byte) (int, error) {
	return len(b) / 2, nil
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestStdOutput_Writes(t *testing.T) {
	var buf bytes.Buffer
	out := &osio.StdOutput{Writer: &buf}
	require.NoError(t, out.Start())
	require.NoError(t, out.Consume(context.Background(), feed("A", "B", "C")))
	require.NoError(t, out.Stop())
	require.Equal(t, "ABC", buf.String())
}

func TestStdOutput_WriteFailures(t *testing.T) {
	for name, w := range map[string]io.Writer{
		"short":  shortWriter{},
		"broken": brokenWriter{},
	} {
		t.Run(name, func(t *testing.T) {
			out := &osio.StdOutput{Writer: w}
			require.NoError(t, out.Start())
			err := out.Consume(context.Background(), feed("abcd"))
			require.ErrorIs(t, err, pipeline.ErrSinkUnavailable)
		})
	}
}

func TestFollowInput_EmitsLines(t *testing.T) {
	path := writeFile(t, "log.txt", "first\nsecond\n")
	in := &osio.FollowInput{Path: path, StartBeginning: true}
	require.NoError(t, in.Start())
	defer in.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var out []string
	err := in.Produce(ctx, func(c pipeline.Chunk) error {
		out = append(out, string(c))
		if len(out) == 2 {
			cancel()
		}
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, []string{"first\n", "second\n"}, out)
}

func TestFollowInput_Missing(t *testing.T) {
	in := &osio.FollowInput{Path: filepath.Join(t.TempDir(), "missing.log")}
	require.ErrorIs(t, in.Start(), pipeline.ErrSourceUnavailable)
	require.NoError(t, in.Stop())
}
