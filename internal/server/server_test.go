package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-articles/internal/domain"
	"github.com/samvad-hq/samvad-articles/internal/storage"
	"github.com/samvad-hq/samvad-articles/pkg/articles"
	"github.com/samvad-hq/samvad-articles/pkg/httpclient"
	"github.com/samvad-hq/samvad-articles/pkg/publishers"
)

// fakePublisher records published events and can inject errors.
type fakePublisher struct {
	mu     sync.Mutex
	events []publishers.Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestServer(t *testing.T, pub EventPublisher) (*articles.Client, *httptest.Server) {
	t.Helper()
	store, err := storage.NewStore("memory", "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	srv := httptest.NewServer(New(store, pub, nil))
	t.Cleanup(srv.Close)
	return articles.New(httpclient.NewRestyClient(srv.URL, 2*time.Second), nil), srv
}

func TestCreateReadDeleteScenario(t *testing.T) {
	pub := &fakePublisher{}
	client, _ := newTestServer(t, pub)
	ctx := context.Background()

	created, err := client.Create(ctx, domain.Article{Title: "A"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != 1 {
		t.Fatalf("expected server-assigned id 1, got %d", created.ID)
	}

	got, err := client.ReadOne(ctx, created.ID)
	if err != nil {
		t.Fatalf("ReadOne: %v", err)
	}
	if *got != (domain.Article{ID: 1, Title: "A"}) {
		t.Fatalf("ReadOne = %+v", got)
	}

	if err := client.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := client.ReadOne(ctx, created.ID); !articles.IsNotFound(err) {
		t.Fatalf("expected NotFoundError after delete, got %v", err)
	}

	want := []string{publishers.EventArticleCreated, publishers.EventArticleDeleted}
	if got := pub.types(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestCreateThenReadOneKeepsContent(t *testing.T) {
	client, _ := newTestServer(t, nil)
	ctx := context.Background()

	inputs := []domain.Article{
		{Title: "Hi", Body: "first", Author: "ann"},
		{Title: "100% & more", Body: "a/b?c=d", Author: "bob"},
		{},
	}
	for _, in := range inputs {
		created, err := client.Create(ctx, in)
		if err != nil {
			t.Fatalf("Create(%+v): %v", in, err)
		}
		got, err := client.ReadOne(ctx, created.ID)
		if err != nil {
			t.Fatalf("ReadOne(%d): %v", created.ID, err)
		}
		if !got.SameContent(in) {
			t.Fatalf("ReadOne = %+v, want content of %+v", got, in)
		}
	}
}

func TestReadAllCountsLiveRecords(t *testing.T) {
	client, _ := newTestServer(t, nil)
	ctx := context.Background()

	all, err := client.ReadAll(ctx)
	if err != nil || len(all) != 0 {
		t.Fatalf("empty ReadAll = %v, %v", all, err)
	}

	var ids []int64
	for _, title := range []string{"a", "b", "c", "d"} {
		a, err := client.Create(ctx, domain.Article{Title: title})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, a.ID)
	}
	if err := client.Delete(ctx, ids[1]); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	all, err = client.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 articles, got %d", len(all))
	}
	if all[0].Title != "a" || all[1].Title != "c" || all[2].Title != "d" {
		t.Fatalf("unexpected order %+v", all)
	}

	page, err := client.ReadPage(ctx, 1, 2)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if len(page) != 1 || page[0].Title != "d" {
		t.Fatalf("page 1 = %+v", page)
	}
}

func TestUpdateThenReadOne(t *testing.T) {
	pub := &fakePublisher{err: errors.New("sink down")}
	client, _ := newTestServer(t, pub)
	ctx := context.Background()

	created, err := client.Create(ctx, domain.Article{Title: "old"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	x := domain.Article{Title: "new", Body: "b", Author: "c"}
	updated, err := client.Update(ctx, created.ID, x)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated == nil || updated.ID != created.ID || !updated.SameContent(x) {
		t.Fatalf("Update = %+v", updated)
	}

	got, err := client.ReadOne(ctx, created.ID)
	if err != nil {
		t.Fatalf("ReadOne: %v", err)
	}
	if !got.SameContent(x) {
		t.Fatalf("ReadOne = %+v, want %+v", got, x)
	}
}

func TestMissingArticleIsNotFound(t *testing.T) {
	client, _ := newTestServer(t, nil)
	ctx := context.Background()

	if _, err := client.ReadOne(ctx, 404); !articles.IsNotFound(err) {
		t.Fatalf("ReadOne: expected NotFoundError, got %v", err)
	}
	if _, err := client.Update(ctx, 404, domain.Article{Title: "x"}); !articles.IsNotFound(err) {
		t.Fatalf("Update: expected NotFoundError, got %v", err)
	}
	if err := client.Delete(ctx, 404); !articles.IsNotFound(err) {
		t.Fatalf("Delete: expected NotFoundError, got %v", err)
	}
}

func TestSearchRoundTripsReservedCharacters(t *testing.T) {
	client, _ := newTestServer(t, nil)
	ctx := context.Background()

	for _, title := range []string{"plain", "50%&50", "%25%26"} {
		if _, err := client.Create(ctx, domain.Article{Title: title}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := client.Search(ctx, "%&")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Title != "50%&50" {
		t.Fatalf("Search %%& = %+v", got)
	}

	got, err = client.Search(ctx, "%25")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Title != "%25%26" {
		t.Fatalf("Search %%25 = %+v", got)
	}
}

func TestBadRequests(t *testing.T) {
	_, srv := newTestServer(t, nil)

	cases := []struct {
		name, method, path, body string
		want                     int
	}{
		{"non-numeric id", http.MethodGet, "/articles/abc", "", http.StatusBadRequest},
		{"negative page", http.MethodGet, "/articles/paged?page=-1&limit=2", "", http.StatusBadRequest},
		{"zero limit", http.MethodGet, "/articles/paged?page=0&limit=0", "", http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/articles", "{", http.StatusBadRequest},
		{"page past int range", http.MethodGet, "/articles/paged?page=4611686018427387904&limit=2", "", http.StatusOK},
		{"ping", http.MethodGet, "/ping", "", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, srv.URL+tc.path, strings.NewReader(tc.body))
			if err != nil {
				t.Fatalf("NewRequest: %v", err)
			}
			req.Header.Set("Content-Type", "application/json")
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("Do: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}

func TestPagedBeyondLastPageIsEmpty(t *testing.T) {
	client, srv := newTestServer(t, nil)
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c"} {
		if _, err := client.Create(ctx, domain.Article{Title: title}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	page, err := client.ReadPage(ctx, math.MaxInt/2, 2)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if len(page) != 0 {
		t.Fatalf("expected empty page, got %+v", page)
	}

	resp, err := http.Get(srv.URL + "/articles/paged?page=4611686018427387904&limit=2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	if strings.TrimSpace(string(body)) != "[]" {
		t.Fatalf("body = %q, want []", body)
	}
}

func TestSharedClientConcurrentUse(t *testing.T) {
	client, _ := newTestServer(t, nil)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	ids := make(chan int64, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := domain.Article{Title: fmt.Sprintf("t%d", i), Author: fmt.Sprintf("w%d", i)}
			created, err := client.Create(ctx, in)
			if err != nil {
				errs <- fmt.Errorf("worker %d Create: %w", i, err)
				return
			}
			got, err := client.ReadOne(ctx, created.ID)
			if err != nil {
				errs <- fmt.Errorf("worker %d ReadOne: %w", i, err)
				return
			}
			if got.ID != created.ID || !got.SameContent(in) {
				errs <- fmt.Errorf("worker %d read %+v, want %+v", i, got, in)
				return
			}
			if _, err := client.ReadAll(ctx); err != nil {
				errs <- fmt.Errorf("worker %d ReadAll: %w", i, err)
				return
			}
			ids <- created.ID
		}(i)
	}
	wg.Wait()
	close(errs)
	close(ids)

	for err := range errs {
		t.Error(err)
	}
	seen := make(map[int64]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("id %d assigned twice", id)
		}
		seen[id] = true
	}
	if len(seen) != workers {
		t.Fatalf("expected %d distinct ids, got %d", workers, len(seen))
	}

	all, err := client.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(all) != workers {
		t.Fatalf("expected %d articles, got %d", workers, len(all))
	}
}

// ctxPublisher records the state of the context it is handed.
type ctxPublisher struct {
	err         error
	hasDeadline bool
	deadline    time.Time
}

func (c *ctxPublisher) Publish(ctx context.Context, _ publishers.Event) (int, error) {
	c.err = ctx.Err()
	c.deadline, c.hasDeadline = ctx.Deadline()
	return 1, nil
}

func TestPublishSurvivesCancelledRequest(t *testing.T) {
	pub := &ctxPublisher{}
	store, err := storage.NewStore("memory", "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	s := New(store, pub, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	s.publish(ctx, publishers.EventArticleCreated, domain.Article{ID: 1, Title: "A"})

	if pub.err != nil {
		t.Fatalf("publisher saw cancelled context: %v", pub.err)
	}
	if !pub.hasDeadline {
		t.Fatalf("publisher context has no deadline")
	}
	if pub.deadline.After(start.Add(publishTimeout + time.Second)) {
		t.Fatalf("deadline %v exceeds publish timeout", pub.deadline)
	}
}
