package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avkazmin/page-analyzer/internal/checker"
	"github.com/avkazmin/page-analyzer/internal/store"
)

type fakeRepo struct {
	mu      sync.Mutex
	nextID  int64
	urls    map[int64]store.URL
	byName  map[string]int64
	checks  map[int64][]store.URLCheck
	failAll error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		urls:   map[int64]store.URL{},
		byName: map[string]int64{},
		checks: map[int64][]store.URLCheck{},
	}
}

func (f *fakeRepo) FindByName(_ context.Context, name string) (store.URL, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return store.URL{}, f.failAll
	}
	id, ok := f.byName[name]
	if !ok {
		return store.URL{}, store.ErrNotFound
	}
	return f.urls[id], nil
}

func (f *fakeRepo) FindByID(_ context.Context, id int64) (store.URL, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return store.URL{}, f.failAll
	}
	u, ok := f.urls[id]
	if !ok {
		return store.URL{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) SaveURL(_ context.Context, name string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return 0, f.failAll
	}
	if _, exists := f.byName[name]; exists {
		return 0, store.ErrDuplicateURL
	}
	f.nextID++
	f.urls[f.nextID] = store.URL{ID: f.nextID, Name: name}
	f.byName[name] = f.nextID
	return f.nextID, nil
}

func (f *fakeRepo) ListURLs(_ context.Context) ([]store.URLSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	var out []store.URLSummary
	for id := f.nextID; id > 0; id-- {
		if u, ok := f.urls[id]; ok {
			out = append(out, store.URLSummary{URL: u})
		}
	}
	return out, nil
}

func (f *fakeRepo) ListChecks(_ context.Context, urlID int64) ([]store.URLCheck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	var out []store.URLCheck
	for i := len(f.checks[urlID]) - 1; i >= 0; i-- {
		out = append(out, f.checks[urlID][i])
	}
	return out, nil
}

func (f *fakeRepo) SaveCheck(_ context.Context, urlID int64, result store.CheckResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	f.checks[urlID] = append(f.checks[urlID], store.URLCheck{
		ID:          int64(len(f.checks[urlID]) + 1),
		URLID:       urlID,
		StatusCode:  result.StatusCode,
		H1:          result.H1,
		Title:       result.Title,
		Description: result.Description,
	})
	return nil
}

type fakeChecker struct {
	result store.CheckResult
	err    error
	calls  int
}

func (f *fakeChecker) Check(_ context.Context, _ string) (store.CheckResult, error) {
	f.calls++
	return f.result, f.err
}

func newTestService(repo *fakeRepo, pc PageChecker) *Service {
	return New(repo, pc, zap.NewNop())
}

func TestAddURLRegistersNormalizedName(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := newTestService(repo, &fakeChecker{})

	res, err := svc.AddURL(context.Background(), "http://Example.com/path?x=1")
	require.NoError(t, err)
	require.True(t, res.Created)

	u, err := repo.FindByID(context.Background(), res.ID)
	require.NoError(t, err)
	require.Equal(t, "http://example.com", u.Name)
}

func TestAddURLRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := newTestService(repo, &fakeChecker{})

	_, err := svc.AddURL(context.Background(), "example.com")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.NotEmpty(t, vErr.Messages)
	require.Empty(t, repo.byName)
}

func TestAddURLDeduplicatesEquivalentInputs(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := newTestService(repo, &fakeChecker{})

	first, err := svc.AddURL(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.True(t, first.Created)

	second, err := svc.AddURL(context.Background(), "https://EXAMPLE.com/other/page")
	require.NoError(t, err)
	require.False(t, second.Created)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, repo.byName, 1)
}

func TestAddURLPropagatesRepositoryError(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.failAll = errors.New("store unavailable")
	svc := newTestService(repo, &fakeChecker{})

	_, err := svc.AddURL(context.Background(), "https://example.com")
	require.Error(t, err)

	var vErr *ValidationError
	require.False(t, errors.As(err, &vErr))
}

func TestGetURLNotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeRepo(), &fakeChecker{})
	_, err := svc.GetURL(context.Background(), 99)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetURLReturnsHistoryNewestFirst(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	status1, status2 := 200, 404
	svc := newTestService(repo, &fakeChecker{})

	res, err := svc.AddURL(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.NoError(t, repo.SaveCheck(context.Background(), res.ID, store.CheckResult{StatusCode: &status1}))
	require.NoError(t, repo.SaveCheck(context.Background(), res.ID, store.CheckResult{StatusCode: &status2}))

	detail, err := svc.GetURL(context.Background(), res.ID)
	require.NoError(t, err)
	require.Equal(t, "https://example.com", detail.URL.Name)
	require.Len(t, detail.Checks, 2)
	require.Equal(t, 404, *detail.Checks[0].StatusCode)
	require.Equal(t, 200, *detail.Checks[1].StatusCode)
}

func TestRunCheckRecordsResult(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	status := 200
	h1 := "Welcome"
	pc := &fakeChecker{result: store.CheckResult{StatusCode: &status, H1: &h1}}
	svc := newTestService(repo, pc)

	res, err := svc.AddURL(context.Background(), "https://example.com")
	require.NoError(t, err)

	require.NoError(t, svc.RunCheck(context.Background(), res.ID))
	require.Equal(t, 1, pc.calls)

	checks, err := repo.ListChecks(context.Background(), res.ID)
	require.NoError(t, err)
	require.Len(t, checks, 1)
	require.Equal(t, 200, *checks[0].StatusCode)
	require.Equal(t, "Welcome", *checks[0].H1)
}

func TestRunCheckUnknownURL(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeRepo(), &fakeChecker{})
	err := svc.RunCheck(context.Background(), 12345)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunCheckTransportFailureWritesNothing(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	fetchErr := &checker.FetchError{URL: "https://example.com", Err: errors.New("no such host")}
	pc := &fakeChecker{err: fetchErr}
	svc := newTestService(repo, pc)

	res, err := svc.AddURL(context.Background(), "https://example.com")
	require.NoError(t, err)

	err = svc.RunCheck(context.Background(), res.ID)
	var fe *checker.FetchError
	require.ErrorAs(t, err, &fe)
	require.Empty(t, repo.checks[res.ID])
}

func TestRunCheckRecordsNon2xxStatus(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	status := 500
	pc := &fakeChecker{result: store.CheckResult{StatusCode: &status}}
	svc := newTestService(repo, pc)

	res, err := svc.AddURL(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.NoError(t, svc.RunCheck(context.Background(), res.ID))

	checks := repo.checks[res.ID]
	require.Len(t, checks, 1)
	require.Equal(t, 500, *checks[0].StatusCode)
	require.Nil(t, checks[0].H1)
}
