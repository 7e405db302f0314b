package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lyzr/vidgrab/cmd/vidgrab/models"
	"github.com/lyzr/vidgrab/common/extractor"
	"github.com/lyzr/vidgrab/common/logger"
	mediamodels "github.com/lyzr/vidgrab/common/models"
	"github.com/lyzr/vidgrab/common/policy"
	"github.com/lyzr/vidgrab/common/validation"
	"github.com/lyzr/vidgrab/common/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExtractor writes the named files into the workspace instead of running yt-dlp
type fakeExtractor struct {
	mu    sync.Mutex
	files []string
	err   error
	block bool
	calls []extractCall
}

type extractCall struct {
	url  string
	dir  string
	opts extractor.Options
}

func (f *fakeExtractor) Extract(ctx context.Context, url string, opts extractor.Options) error {
	dir := filepath.Dir(opts.OutputTemplate)

	f.mu.Lock()
	f.calls = append(f.calls, extractCall{url: url, dir: dir, opts: opts})
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.err != nil {
		return f.err
	}

	for _, name := range f.files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeExtractor) dirs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	dirs := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		dirs = append(dirs, c.dir)
	}
	return dirs
}

// fakeTranscoder mimics ffmpeg: writes a sibling .wav and drops the mp3
type fakeTranscoder struct {
	err   error
	calls int
}

func (f *fakeTranscoder) ToWAV(ctx context.Context, mp3Path string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	wav := strings.TrimSuffix(mp3Path, ".mp3") + ".wav"
	if err := os.WriteFile(wav, []byte("RIFF"), 0o644); err != nil {
		return "", err
	}
	return wav, os.Remove(mp3Path)
}

type memoryRecorder struct {
	mu      sync.Mutex
	records []*models.DownloadRecord
}

func (m *memoryRecorder) Record(ctx context.Context, rec *models.DownloadRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

type testEnv struct {
	svc        *DownloadService
	workspaces *workspace.Manager
	extractor  *fakeExtractor
	transcoder *fakeTranscoder
	recorder   *memoryRecorder
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()

	workspaces, err := workspace.NewManager(filepath.Join(t.TempDir(), "downloads"))
	require.NoError(t, err)

	if opts.ExtractTimeout == 0 {
		opts.ExtractTimeout = 5 * time.Second
	}
	if opts.TranscodeTimeout == 0 {
		opts.TranscodeTimeout = 5 * time.Second
	}

	env := &testEnv{
		workspaces: workspaces,
		extractor:  &fakeExtractor{},
		transcoder: &fakeTranscoder{},
		recorder:   &memoryRecorder{},
	}
	env.svc = NewDownloadService(
		validation.NewSourceValidator(),
		nil,
		workspaces,
		env.extractor,
		env.transcoder,
		opts,
		nil,
		logger.Discard(),
	)
	env.svc.AddRecorder(env.recorder)
	return env
}

func (e *testEnv) workspaceCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(e.workspaces.BaseDir())
	require.NoError(t, err)
	return len(entries)
}

func request(format mediamodels.Format) *models.DownloadRequest {
	return &models.DownloadRequest{
		URL:      "https://www.youtube.com/watch?v=abc123",
		Format:   format,
		Platform: string(validation.PlatformYouTube),
	}
}

func TestPrepare(t *testing.T) {
	env := newTestEnv(t, Options{})

	tests := []struct {
		name    string
		url     string
		format  string
		wantErr error
		want    mediamodels.Format
	}{
		{"missing url wins over bad format", "", "flac", ErrMissingURL, ""},
		{"missing url with valid format", "", "mp3", ErrMissingURL, ""},
		{"invalid format wins over bad url", "https://example.com/x", "flac", ErrInvalidFormat, ""},
		{"unsupported url", "https://example.com/watch?v=abc", "mp4", ErrUnsupportedURL, ""},
		{"empty format", "https://www.youtube.com/watch?v=abc123", "", ErrInvalidFormat, ""},
		{"explicit default", "https://www.youtube.com/watch?v=abc123", "mp4", nil, mediamodels.FormatMP4},
		{"upper-case format", "https://youtu.be/abc123", "WAV", nil, mediamodels.FormatWAV},
		{"instagram mp3", "https://www.instagram.com/p/xyz/", "mp3", nil, mediamodels.FormatMP3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := env.svc.Prepare(context.Background(), tt.url, tt.format)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, IsBadRequest(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Format)
			assert.Equal(t, tt.url, req.URL)
		})
	}
}

func TestPrepare_Policy(t *testing.T) {
	env := newTestEnv(t, Options{})
	pol, err := policy.New(`platform != "facebook"`)
	require.NoError(t, err)
	env.svc.policy = pol

	_, err = env.svc.Prepare(context.Background(), "https://www.facebook.com/page/videos/1", "mp4")
	assert.ErrorIs(t, err, ErrPolicyDenied)
	assert.False(t, IsBadRequest(err))

	req, err := env.svc.Prepare(context.Background(), "https://youtu.be/abc", "mp4")
	require.NoError(t, err)
	assert.Equal(t, "youtube", req.Platform)

	require.Len(t, env.recorder.records, 1)
	assert.Equal(t, models.StatusRejected, env.recorder.records[0].Status)
	assert.Equal(t, "facebook", env.recorder.records[0].Platform)
}

func TestDownload_MP4(t *testing.T) {
	env := newTestEnv(t, Options{CleanupOnSend: true})
	env.extractor.files = []string{"My Video.mp4"}

	a, err := env.svc.Download(context.Background(), request(mediamodels.FormatMP4))
	require.NoError(t, err)

	assert.Equal(t, "My Video.mp4", a.Name())
	assert.Equal(t, mediamodels.FormatMP4, a.Format)
	assert.FileExists(t, a.Path)
	assert.Equal(t, 0, env.transcoder.calls)

	call := env.extractor.calls[0]
	assert.Equal(t, extractor.SelectorBestVideoAudio, call.opts.FormatSelector)
	assert.True(t, call.opts.NoPlaylist)

	env.svc.Release(a)
	assert.NoDirExists(t, a.WorkspaceDir)
	assert.Equal(t, 0, env.workspaceCount(t))
}

func TestDownload_MP3(t *testing.T) {
	env := newTestEnv(t, Options{AudioQuality: "192"})
	env.extractor.files = []string{"song.mp3"}

	a, err := env.svc.Download(context.Background(), request(mediamodels.FormatMP3))
	require.NoError(t, err)

	assert.Equal(t, "song.mp3", a.Name())
	opts := env.extractor.calls[0].opts
	assert.True(t, opts.ExtractAudio)
	assert.Equal(t, "mp3", opts.AudioFormat)
	assert.Equal(t, "192", opts.AudioQuality)
	assert.Equal(t, 0, env.transcoder.calls)
}

func TestDownload_WAVReplacesIntermediate(t *testing.T) {
	env := newTestEnv(t, Options{CleanupOnSend: false})
	env.extractor.files = []string{"title.mp3"}

	a, err := env.svc.Download(context.Background(), request(mediamodels.FormatWAV))
	require.NoError(t, err)

	assert.Equal(t, "title.wav", a.Name())
	assert.Equal(t, 1, env.transcoder.calls)

	entries, err := os.ReadDir(a.WorkspaceDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "title.wav", entries[0].Name())

	// Cleanup disabled: Release keeps the workspace for the janitor
	env.svc.Release(a)
	assert.DirExists(t, a.WorkspaceDir)
}

func TestDownload_WAVMissingIntermediate(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.extractor.files = []string{"title.webm"}

	_, err := env.svc.Download(context.Background(), request(mediamodels.FormatWAV))
	assert.ErrorIs(t, err, ErrMissingIntermediate)
	assert.Equal(t, KindMissingIntermediate, ErrorKind(err))
	assert.Equal(t, 0, env.transcoder.calls)
	assert.Equal(t, 0, env.workspaceCount(t), "failed jobs remove their workspace")
}

func TestDownload_ExtractionFailure(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.extractor.err = errors.New("ERROR: Unsupported URL")

	_, err := env.svc.Download(context.Background(), request(mediamodels.FormatMP4))
	assert.ErrorIs(t, err, ErrExternalTool)
	assert.NotErrorIs(t, err, ErrToolTimeout)
	assert.Equal(t, KindExternalTool, ErrorKind(err))
	assert.Equal(t, 0, env.workspaceCount(t))
}

func TestDownload_ExtractionTimeout(t *testing.T) {
	env := newTestEnv(t, Options{ExtractTimeout: 20 * time.Millisecond})
	env.extractor.block = true

	_, err := env.svc.Download(context.Background(), request(mediamodels.FormatMP4))
	assert.ErrorIs(t, err, ErrToolTimeout)
	assert.ErrorIs(t, err, ErrExternalTool)
	assert.Equal(t, KindToolTimeout, ErrorKind(err))
}

func TestDownload_TranscodeFailureIsUnified(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.extractor.files = []string{"title.mp3"}
	env.transcoder.err = errors.New("exit status 1")

	_, err := env.svc.Download(context.Background(), request(mediamodels.FormatWAV))
	assert.ErrorIs(t, err, ErrExternalTool)
	assert.Equal(t, KindExternalTool, ErrorKind(err))
	assert.Equal(t, 0, env.workspaceCount(t))
}

func TestDownload_NoMatchingArtifact(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.extractor.files = []string{"title.mkv"}

	_, err := env.svc.Download(context.Background(), request(mediamodels.FormatMP4))
	assert.ErrorIs(t, err, ErrArtifactNotFound)
	assert.Equal(t, 0, env.workspaceCount(t))
}

func TestDownload_WorkspaceFailure(t *testing.T) {
	env := newTestEnv(t, Options{})
	require.NoError(t, os.RemoveAll(env.workspaces.BaseDir()))

	_, err := env.svc.Download(context.Background(), request(mediamodels.FormatMP4))
	assert.ErrorIs(t, err, ErrWorkspace)
	assert.ErrorIs(t, err, workspace.ErrWorkspaceIO)
	assert.Empty(t, env.extractor.calls)

	require.Len(t, env.recorder.records, 1)
	assert.Equal(t, KindWorkspaceIO, *env.recorder.records[0].ErrorKind)
}

func TestDownload_ConcurrentRequestsGetDistinctWorkspaces(t *testing.T) {
	env := newTestEnv(t, Options{CleanupOnSend: false})
	env.extractor.files = []string{"title.mp4"}

	const n = 50
	artifacts := make([]*mediamodels.Artifact, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			artifacts[i], errs[i] = env.svc.Download(context.Background(), request(mediamodels.FormatMP4))
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[artifacts[i].WorkspaceDir])
		seen[artifacts[i].WorkspaceDir] = true
	}
	assert.Equal(t, n, env.workspaceCount(t))
}

func TestDownload_SameRequestTwiceIsNotDeduplicated(t *testing.T) {
	env := newTestEnv(t, Options{CleanupOnSend: false})
	env.extractor.files = []string{"title.mp4"}

	first, err := env.svc.Download(context.Background(), request(mediamodels.FormatMP4))
	require.NoError(t, err)
	second, err := env.svc.Download(context.Background(), request(mediamodels.FormatMP4))
	require.NoError(t, err)

	assert.NotEqual(t, first.WorkspaceDir, second.WorkspaceDir)
	assert.Len(t, env.extractor.dirs(), 2)
	assert.Equal(t, 2, env.workspaceCount(t))
}

func TestDownload_RecordsHistory(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.extractor.files = []string{"clip.mp4"}

	a, err := env.svc.Download(context.Background(), request(mediamodels.FormatMP4))
	require.NoError(t, err)

	env.extractor.files = nil
	_, err = env.svc.Download(context.Background(), request(mediamodels.FormatMP4))
	require.Error(t, err)

	require.Len(t, env.recorder.records, 2)

	ok := env.recorder.records[0]
	assert.Equal(t, models.StatusCompleted, ok.Status)
	assert.Equal(t, filepath.Base(a.WorkspaceDir), ok.ID.String())
	require.NotNil(t, ok.ArtifactName)
	assert.Equal(t, "clip.mp4", *ok.ArtifactName)
	assert.Nil(t, ok.ErrorKind)
	assert.Equal(t, "youtube", ok.Platform)

	failed := env.recorder.records[1]
	assert.Equal(t, models.StatusFailed, failed.Status)
	require.NotNil(t, failed.ErrorKind)
	assert.Equal(t, KindArtifactNotFound, *failed.ErrorKind)
	assert.Nil(t, failed.ArtifactName)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "", ErrorKind(nil))
	assert.Equal(t, KindBadRequest, ErrorKind(ErrUnsupportedURL))
	assert.Equal(t, KindPolicyDenied, ErrorKind(ErrPolicyDenied))
	assert.Equal(t, KindToolTimeout, ErrorKind(toolError("extract", context.DeadlineExceeded)))
	assert.Equal(t, KindExternalTool, ErrorKind(toolError("extract", context.Canceled)))
	assert.Equal(t, KindInternal, ErrorKind(errors.New("boom")))
}
