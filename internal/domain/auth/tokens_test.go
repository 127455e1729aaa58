package auth_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/okian/podium/internal/domain/auth"
	. "github.com/smartystreets/goconvey/convey"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestInMemoryTokens(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new token store", t, func() {
		store := auth.NewInMemoryTokens()

		Convey("When a token is issued", func() {
			token, err := store.Issue(ctx)

			Convey("Then it is 64 hex characters and valid", func() {
				So(err, ShouldBeNil)
				So(len(token), ShouldEqual, auth.TokenBytes*2)
				So(token, ShouldNotContainSubstring, " ")
				So(store.Valid(ctx, token), ShouldBeTrue)
				So(store.Size(), ShouldEqual, 1)
			})

			Convey("And revoking it invalidates it", func() {
				So(store.Revoke(ctx, token), ShouldBeTrue)
				So(store.Valid(ctx, token), ShouldBeFalse)
				So(store.Size(), ShouldEqual, 0)
				So(store.Revoke(ctx, token), ShouldBeFalse)
			})
		})

		Convey("When checking unknown tokens", func() {
			Convey("Then they are rejected", func() {
				So(store.Valid(ctx, ""), ShouldBeFalse)
				So(store.Valid(ctx, "deadbeef"), ShouldBeFalse)
			})
		})

		Convey("When several tokens are issued", func() {
			seen := map[string]bool{}
			for i := 0; i < 10; i++ {
				token, err := store.Issue(ctx)
				So(err, ShouldBeNil)
				seen[token] = true
			}

			Convey("Then they are distinct", func() {
				So(len(seen), ShouldEqual, 10)
				So(store.Size(), ShouldEqual, 10)
			})
		})
	})

	Convey("Given a bounded token store", t, func() {
		store := auth.NewInMemoryTokens(auth.WithMaxTokens(3))

		Convey("When more tokens are issued than it holds", func() {
			var tokens []string
			for i := 0; i < 5; i++ {
				token, err := store.Issue(ctx)
				So(err, ShouldBeNil)
				tokens = append(tokens, token)
			}

			Convey("Then the oldest are evicted first", func() {
				So(store.Size(), ShouldEqual, 3)
				So(store.Valid(ctx, tokens[0]), ShouldBeFalse)
				So(store.Valid(ctx, tokens[1]), ShouldBeFalse)
				So(store.Valid(ctx, tokens[2]), ShouldBeTrue)
				So(store.Valid(ctx, tokens[4]), ShouldBeTrue)
			})

			Convey("And revoking from the middle keeps the order intact", func() {
				So(store.Revoke(ctx, tokens[3]), ShouldBeTrue)
				next, err := store.Issue(ctx)
				So(err, ShouldBeNil)
				So(store.Size(), ShouldEqual, 3)

				last, err := store.Issue(ctx)
				So(err, ShouldBeNil)
				So(store.Valid(ctx, tokens[2]), ShouldBeFalse)
				So(store.Valid(ctx, tokens[4]), ShouldBeTrue)
				So(store.Valid(ctx, next), ShouldBeTrue)
				So(store.Valid(ctx, last), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded token store", t, func() {
		store := auth.NewInMemoryTokens(auth.WithMaxTokens(0))

		Convey("When many tokens are issued", func() {
			for i := 0; i < 200; i++ {
				_, err := store.Issue(ctx)
				So(err, ShouldBeNil)
			}

			Convey("Then none are evicted", func() {
				So(store.Size(), ShouldEqual, 200)
			})
		})
	})

	Convey("Given a broken entropy source", t, func() {
		Convey("When the reader fails", func() {
			store := auth.NewInMemoryTokens(auth.WithEntropy(failingReader{}))
			_, err := store.Issue(ctx)

			Convey("Then issuing fails", func() {
				So(errors.Is(err, auth.ErrTokenGeneration), ShouldBeTrue)
				So(store.Size(), ShouldEqual, 0)
			})
		})

		Convey("When the reader repeats itself", func() {
			store := auth.NewInMemoryTokens(auth.WithEntropy(bytes.NewReader(make([]byte, auth.TokenBytes*2))))
			_, err := store.Issue(ctx)
			So(err, ShouldBeNil)
			_, err = store.Issue(ctx)

			Convey("Then the duplicate is refused", func() {
				So(errors.Is(err, auth.ErrTokenGeneration), ShouldBeTrue)
				So(store.Size(), ShouldEqual, 1)
			})
		})
	})
}

func TestInMemoryTokensConcurrency(t *testing.T) {
	Convey("Given a token store with concurrent access", t, func() {
		ctx := context.Background()
		store := auth.NewInMemoryTokens(auth.WithMaxTokens(50))

		Convey("When goroutines issue, check and revoke concurrently", func() {
			var wg sync.WaitGroup
			for g := 0; g < 8; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < 25; i++ {
						token, err := store.Issue(ctx)
						if err != nil {
							continue
						}
						store.Valid(ctx, token)
						if i%2 == 0 {
							store.Revoke(ctx, token)
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then the bound holds", func() {
				So(store.Size(), ShouldBeLessThanOrEqualTo, 50)
				So(store.Size(), ShouldBeGreaterThan, 0)
			})
		})
	})
}
