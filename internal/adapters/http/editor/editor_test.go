package editor_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/okian/podium/internal/adapters/http/editor"
	"github.com/okian/podium/internal/adapters/source"
	"github.com/okian/podium/internal/domain/auth"
	"github.com/okian/podium/internal/domain/icons"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

const (
	user     = "admin"
	password = "Döner#22"
)

func passwordHash() string {
	sum := sha256.Sum256([]byte(password))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

type recordingReloader struct {
	mu      sync.Mutex
	reasons []model.Reason
}

func (r *recordingReloader) Enqueue(_ context.Context, reason model.Reason) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
	return true
}

type fixture struct {
	mux         *http.ServeMux
	resultsPath string
	iconsPath   string
	reloader    *recordingReloader
}

func newFixture(t *testing.T, opts ...editor.Option) *fixture {
	dir := t.TempDir()
	f := &fixture{
		mux:         http.NewServeMux(),
		resultsPath: filepath.Join(dir, "results.json"),
		iconsPath:   filepath.Join(dir, "emojiMap.json"),
		reloader:    &recordingReloader{},
	}
	opts = append([]editor.Option{
		editor.WithCredentials(user, passwordHash()),
		editor.WithReloader(f.reloader),
		editor.WithLoginRate(1000, 1000),
	}, opts...)
	srv := editor.NewServer(source.NewFileSource(f.resultsPath), source.NewFileSource(f.iconsPath), opts...)
	srv.Register(context.Background(), f.mux)
	return f
}

func (f *fixture) do(method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	return w
}

func (f *fixture) login(username, pass string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{"username": username, "password": pass})
	return f.do(http.MethodPost, "/api/login", "", string(body))
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	out := map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func TestLogin(t *testing.T) {
	Convey("Given an editor with configured credentials", t, func() {
		f := newFixture(t)

		Convey("When the right credentials are sent", func() {
			w := f.login(user, password)
			out := decode(w)

			Convey("Then a 64 character hex token is issued", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(out["success"], ShouldEqual, true)
				So(out["token"], ShouldHaveLength, 64)
			})
		})

		Convey("When the password is wrong", func() {
			w := f.login(user, "nope")

			Convey("Then the login is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
				out := decode(w)
				So(out["success"], ShouldEqual, false)
				So(out["message"], ShouldEqual, "login failed")
				So(out, ShouldNotContainKey, "token")
			})
		})

		Convey("When the user is wrong", func() {
			So(f.login("root", password).Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("When a field is missing", func() {
			w := f.do(http.MethodPost, "/api/login", "", `{"username":"admin"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the body is not JSON", func() {
			So(f.do(http.MethodPost, "/api/login", "", `user=admin`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When login is requested with GET", func() {
			So(f.do(http.MethodGet, "/api/login", "", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})

	Convey("Given an editor limited to two login attempts", t, func() {
		f := newFixture(t, editor.WithLoginRate(0.001, 2))

		Convey("When a third attempt follows immediately", func() {
			f.login(user, "a")
			f.login(user, "b")
			w := f.login(user, password)

			Convey("Then it is throttled", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decode(w)["success"], ShouldEqual, false)
			})
		})
	})

	Convey("Given an editor without credentials", t, func() {
		dir := t.TempDir()
		mux := http.NewServeMux()
		editor.NewServer(source.NewFileSource(filepath.Join(dir, "r.json")), source.NewFileSource(filepath.Join(dir, "i.json"))).
			Register(context.Background(), mux)

		Convey("Then nobody can log in", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"x","password":"y"}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
		})
	})
}

func TestSaveResults(t *testing.T) {
	Convey("Given a logged in editor", t, func() {
		f := newFixture(t)
		token := decode(f.login(user, password))["token"].(string)

		Convey("When a valid results array is saved", func() {
			body := `[{"Team":"A","Disziplin":"Quiz","Punkte":10,"Platz":1,"Uhr":"10:00"}]`
			w := f.do(http.MethodPost, "/api/results", token, body)

			Convey("Then it is written pretty printed and a reload is requested", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["success"], ShouldEqual, true)

				data, err := os.ReadFile(f.resultsPath)
				So(err, ShouldBeNil)
				So(string(data), ShouldContainSubstring, "\n    \"Punkte\": 10,")
				So(f.reloader.reasons, ShouldResemble, []model.Reason{model.ReasonEditorSave})
			})

			Convey("And it can be read back", func() {
				r := f.do(http.MethodGet, "/data/results.json", "", "")
				So(r.Code, ShouldEqual, http.StatusOK)
				So(r.Body.String(), ShouldContainSubstring, `"Team": "A"`)
			})
		})

		Convey("When the bearer form is used", func() {
			w := f.do(http.MethodPost, "/api/results", "Bearer "+token, `[]`)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When the body is an object", func() {
			w := f.do(http.MethodPost, "/api/results", token, `{"Team":"A"}`)

			Convey("Then it is rejected and nothing is written", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["error"], ShouldContainSubstring, "input is not a sequence")
				_, err := os.Stat(f.resultsPath)
				So(os.IsNotExist(err), ShouldBeTrue)
				So(f.reloader.reasons, ShouldBeEmpty)
			})
		})

		Convey("When the first record lacks fields", func() {
			w := f.do(http.MethodPost, "/api/results", token, `[{"Team":"A","Punkte":1}]`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["error"], ShouldContainSubstring, "missing fields: Disziplin, Platz, Uhr")
		})

		Convey("When the body is malformed", func() {
			So(f.do(http.MethodPost, "/api/results", token, `[{`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the target cannot be written", func() {
			So(os.Mkdir(f.resultsPath, 0o755), ShouldBeNil)
			w := f.do(http.MethodPost, "/api/results", token, `[]`)

			Convey("Then a 500 with the error is returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decode(w)["success"], ShouldEqual, false)
				So(decode(w)["error"], ShouldStartWith, "save failed")
			})
		})

		Convey("When the session is logged out", func() {
			So(f.do(http.MethodPost, "/api/logout", token, "").Code, ShouldEqual, http.StatusOK)

			Convey("Then the token no longer works", func() {
				w := f.do(http.MethodPost, "/api/results", token, `[]`)
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
				So(decode(w)["message"], ShouldEqual, "not authorized")
			})
		})
	})

	Convey("Given no token", t, func() {
		f := newFixture(t)

		Convey("Then writes are unauthorized", func() {
			So(f.do(http.MethodPost, "/api/results", "", `[]`).Code, ShouldEqual, http.StatusUnauthorized)
			So(f.do(http.MethodPost, "/api/icons", "forged", `[]`).Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("Then the raw document is missing", func() {
			So(f.do(http.MethodGet, "/data/results.json", "", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestSaveIcons(t *testing.T) {
	Convey("Given a logged in editor", t, func() {
		f := newFixture(t)
		token := decode(f.login(user, password))["token"].(string)

		Convey("When a valid icon map is saved", func() {
			w := f.do(http.MethodPost, "/api/icons", token, `[{"Trigger":"lauf","Emoji":"🏃"}]`)

			Convey("Then it is persisted and decodes again", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				data, err := os.ReadFile(f.iconsPath)
				So(err, ShouldBeNil)
				m, err := icons.Decode(data)
				So(err, ShouldBeNil)
				So(m.Lookup("Staffellauf"), ShouldEqual, "🏃")
				So(f.reloader.reasons, ShouldBeEmpty)
			})
		})

		Convey("When a rule is incomplete", func() {
			w := f.do(http.MethodPost, "/api/icons", token, `[{"Trigger":"lauf"}]`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["error"], ShouldContainSubstring, "invalid icon map")
		})
	})

	Convey("Given a token store holding one session", t, func() {
		f := newFixture(t, editor.WithTokens(auth.NewInMemoryTokens(auth.WithMaxTokens(1))))
		first := decode(f.login(user, password))["token"].(string)
		second := decode(f.login(user, password))["token"].(string)

		Convey("Then a new login evicts the older session", func() {
			So(f.do(http.MethodPost, "/api/icons", first, `[]`).Code, ShouldEqual, http.StatusUnauthorized)
			So(f.do(http.MethodPost, "/api/icons", second, `[]`).Code, ShouldEqual, http.StatusOK)
		})
	})
}

func TestEditorPage(t *testing.T) {
	Convey("Given the editor mux", t, func() {
		f := newFixture(t)

		Convey("Then the editor page is served at /", func() {
			w := f.do(http.MethodGet, "/", "", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "Podium Editor")
		})
	})
}
