package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"supersonic/core/auth"
	"supersonic/core/catalogid"
	"supersonic/model"
	"supersonic/repository"
	"supersonic/storage"
)

// fakeCatalog is an in-memory catalog that counts every call.
type fakeCatalog struct {
	mu       sync.Mutex
	calls    int
	users    map[string]string
	artists  []*model.Artist
	albums   []*model.Album
	songs    []*model.Song
	covers   map[catalogid.ID][]byte
	modified time.Time
	fail     error
	panicOn  string
}

func (f *fakeCatalog) enter(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.panicOn == method {
		panic("boom in " + method)
	}
	return f.fail
}

func (f *fakeCatalog) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeCatalog) CheckCredential(_ context.Context, user, password string) (bool, error) {
	if err := f.enter("CheckCredential"); err != nil {
		return false, err
	}
	stored, ok := f.users[user]
	return ok && auth.MatchPassword(stored, password), nil
}

func (f *fakeCatalog) CheckCredentialSalted(_ context.Context, user, token, salt string) (bool, error) {
	if err := f.enter("CheckCredentialSalted"); err != nil {
		return false, err
	}
	stored, ok := f.users[user]
	return ok && auth.MatchToken(stored, token, salt), nil
}

func (f *fakeCatalog) GetAlbum(_ context.Context, id catalogid.ID) (*model.Album, error) {
	if err := f.enter("GetAlbum"); err != nil {
		return nil, err
	}
	for _, a := range f.albums {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) GetAlbumsByArtist(_ context.Context, artistID catalogid.ID) ([]*model.Album, error) {
	if err := f.enter("GetAlbumsByArtist"); err != nil {
		return nil, err
	}
	out := make([]*model.Album, 0)
	for _, a := range f.albums {
		if a.ArtistID == artistID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetAllAlbumsSorted(_ context.Context, offset, limit int) ([]*model.Album, error) {
	if err := f.enter("GetAllAlbumsSorted"); err != nil {
		return nil, err
	}
	sorted := append([]*model.Album(nil), f.albums...)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Title) < strings.ToLower(sorted[j].Title)
	})
	if offset > len(sorted) {
		offset = len(sorted)
	}
	sorted = sorted[offset:]
	if limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (f *fakeCatalog) GetSongsByAlbum(_ context.Context, albumID catalogid.ID) ([]*model.Song, error) {
	if err := f.enter("GetSongsByAlbum"); err != nil {
		return nil, err
	}
	out := make([]*model.Song, 0)
	for _, s := range f.songs {
		if s.AlbumID == albumID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetSong(_ context.Context, id catalogid.ID) (*model.Song, error) {
	if err := f.enter("GetSong"); err != nil {
		return nil, err
	}
	for _, s := range f.songs {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) GetRandomSongs(_ context.Context, limit int) ([]*model.Song, error) {
	if err := f.enter("GetRandomSongs"); err != nil {
		return nil, err
	}
	if limit > len(f.songs) {
		limit = len(f.songs)
	}
	return f.songs[:limit], nil
}

func (f *fakeCatalog) GetArtists(context.Context) ([]*model.Artist, error) {
	if err := f.enter("GetArtists"); err != nil {
		return nil, err
	}
	return f.artists, nil
}

func (f *fakeCatalog) GetSongFile(_ context.Context, songID catalogid.ID) (string, error) {
	if err := f.enter("GetSongFile"); err != nil {
		return "", err
	}
	for _, s := range f.songs {
		if s.ID == songID {
			return s.Filename, nil
		}
	}
	return "", nil
}

func (f *fakeCatalog) GetAlbumCover(_ context.Context, albumID catalogid.ID, _ int) ([]byte, error) {
	if err := f.enter("GetAlbumCover"); err != nil {
		return nil, err
	}
	return f.covers[albumID], nil
}

func (f *fakeCatalog) LastModified(context.Context) (time.Time, error) {
	if err := f.enter("LastModified"); err != nil {
		return time.Time{}, err
	}
	return f.modified, nil
}

func (f *fakeCatalog) Stats(context.Context) (repository.CatalogStats, error) {
	if err := f.enter("Stats"); err != nil {
		return repository.CatalogStats{}, err
	}
	return repository.CatalogStats{
		Artists: int64(len(f.artists)),
		Albums:  int64(len(f.albums)),
		Songs:   int64(len(f.songs)),
		Users:   int64(len(f.users)),
	}, nil
}

func newSong(track int, title, album, artist, file string) *model.Song {
	return &model.Song{
		ID:       catalogid.SongID(track, 1, title, album, artist),
		Title:    title,
		AlbumID:  catalogid.AlbumID(album, artist),
		Album:    album,
		ArtistID: catalogid.ArtistID(artist),
		Artist:   artist,
		Track:    track,
		Disc:     1,
		Year:     2001,
		Duration: 240,
		BitRate:  320,
		Genre:    "House",
		Suffix:   "mp3",
		Filename: file,
	}
}

var (
	daftPunk  = &model.Artist{ID: catalogid.ArtistID("Daft Punk"), Name: "Daft Punk"}
	discovery = &model.Album{ID: catalogid.AlbumID("Discovery", "Daft Punk"), Title: "Discovery",
		ArtistID: daftPunk.ID, Artist: "Daft Punk", HasCover: true}
	homework = &model.Album{ID: catalogid.AlbumID("Homework", "Daft Punk"), Title: "Homework",
		ArtistID: daftPunk.ID, Artist: "Daft Punk"}
	oneMoreTime = newSong(1, "One More Time", "Discovery", "Daft Punk", "daft/01.mp3")
	aerodynamic = newSong(2, "Aerodynamic", "Discovery", "Daft Punk", "daft/02.mp3")
	revolution  = newSong(1, "Revolution 909", "Homework", "Daft Punk", "daft/hw01.flac")
)

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		users:    map[string]string{"alice": "sesame"},
		artists:  []*model.Artist{daftPunk},
		albums:   []*model.Album{homework, discovery},
		songs:    []*model.Song{oneMoreTime, aerodynamic, revolution},
		covers:   map[catalogid.ID][]byte{discovery.ID: []byte("JFIF-discovery")},
		modified: time.UnixMilli(1455843830000),
	}
}

// fakePlaylists serves a fixed set of playlists.
type fakePlaylists struct {
	lists []*model.Playlist
	fail  error
}

func (f *fakePlaylists) GetPlaylist(_ context.Context, id int64) (*model.Playlist, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	for _, p := range f.lists {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePlaylists) GetPlaylists(_ context.Context, user string) ([]*model.Playlist, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	out := make([]*model.Playlist, 0)
	for _, p := range f.lists {
		if p.User == user {
			out = append(out, p)
		}
	}
	return out, nil
}

// trackedFile counts Close calls on an in-memory media file.
type trackedFile struct {
	*strings.Reader
	mu     sync.Mutex
	closed int
}

func (f *trackedFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *trackedFile) Closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// memorySource opens files from a map and remembers the handles it gave out.
type memorySource struct {
	mu     sync.Mutex
	files  map[string]string
	opened []*trackedFile
}

func (m *memorySource) Open(_ context.Context, name string) (*storage.Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	f := &trackedFile{Reader: strings.NewReader(content)}
	m.opened = append(m.opened, f)
	return &storage.Media{File: f, Size: int64(len(content)), Name: name}, nil
}

func (m *memorySource) String() string { return "memory" }

// failingWriter accepts limit bytes of body, then reports a broken pipe.
type failingWriter struct {
	header  http.Header
	status  int
	limit   int
	written int
	writes  int
}

func (w *failingWriter) Header() http.Header {
	if w.header == nil {
		w.header = make(http.Header)
	}
	return w.header
}

func (w *failingWriter) WriteHeader(status int) { w.status = status }

func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	if w.written+len(p) > w.limit {
		n := w.limit - w.written
		w.written = w.limit
		return n, errors.New("write: broken pipe")
	}
	w.written += len(p)
	return len(p), nil
}

type testEnv struct {
	catalog   *fakeCatalog
	playlists *fakePlaylists
	media     *memorySource
	handler   *APIHandler
	pool      *WorkerPool
}

func newTestEnv() *testEnv {
	env := &testEnv{
		catalog:   newFakeCatalog(),
		playlists: &fakePlaylists{},
		media: &memorySource{files: map[string]string{
			"daft/01.mp3":    strings.Repeat("a", 1000),
			"daft/hw01.flac": "flac-data",
		}},
	}
	env.handler = NewAPIHandler(env.catalog, env.playlists, env.media, nil)
	env.pool = NewWorkerPool(1, nil, env.handler, nil)
	return env
}

// do runs one request through the worker code path synchronously.
func (env *testEnv) do(t *testing.T, method, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	req := NewRequest(rec, r)
	env.pool.process(req)
	select {
	case <-req.Done():
	default:
		t.Fatal("request not finished after process")
	}
	return rec
}

const creds = "u=alice&p=sesame"

// decode parses a JSON subsonic-response body.
func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	resp, ok := out["subsonic-response"]
	require.True(t, ok, rec.Body.String())
	return resp
}

func readBody(t *testing.T, r io.Reader) string {
	t.Helper()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}
