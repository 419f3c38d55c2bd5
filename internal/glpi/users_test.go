package glpi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserResolver(t *testing.T) {
	t.Run("FullName", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"id": 7, "name": "jdoe", "firstname": "Jane", "realname": "Doe"}`)
		}))
		defer srv.Close()

		r := newUserResolver(NewClient(), session{cfg: Config{BaseURL: srv.URL}, token: "tok"})
		assert.Equal(t, "Jane Doe", r.Resolve(context.Background(), 7))
	})

	t.Run("LoginFallback", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"id": 7, "name": "jdoe"}`)
		}))
		defer srv.Close()

		r := newUserResolver(NewClient(), session{cfg: Config{BaseURL: srv.URL}, token: "tok"})
		assert.Equal(t, "jdoe", r.Resolve(context.Background(), 7))
	})

	t.Run("ZeroIDWithoutNetworkCall", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}))
		defer srv.Close()

		r := newUserResolver(NewClient(), session{cfg: Config{BaseURL: srv.URL}, token: "tok"})
		assert.Equal(t, UnknownUser, r.Resolve(context.Background(), 0))
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("FetchFailure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		r := newUserResolver(NewClient(), session{cfg: Config{BaseURL: srv.URL}, token: "tok"})
		assert.Equal(t, UnknownUser, r.Resolve(context.Background(), 7))
	})

	t.Run("ConcurrentLookupsShareOneCall", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			fmt.Fprint(w, `{"id": 7, "name": "jdoe", "firstname": "Jane", "realname": "Doe"}`)
		}))
		defer srv.Close()

		r := newUserResolver(NewClient(), session{cfg: Config{BaseURL: srv.URL}, token: "tok"})

		var wg sync.WaitGroup
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.Equal(t, "Jane Doe", r.Resolve(context.Background(), 7))
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("DistinctIDsResolveIndependently", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/apirest.php/User/1":
				fmt.Fprint(w, `{"id": 1, "name": "alice"}`)
			case "/apirest.php/User/2":
				fmt.Fprint(w, `{"id": 2, "name": "bob"}`)
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer srv.Close()

		r := newUserResolver(NewClient(), session{cfg: Config{BaseURL: srv.URL}, token: "tok"})
		assert.Equal(t, "alice", r.Resolve(context.Background(), 1))
		assert.Equal(t, "bob", r.Resolve(context.Background(), 2))
	})
}
