package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bulletin/internal/client/imaging"
	"bulletin/internal/client/session"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *session.Session) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sess := session.New()
	return New(srv.URL, sess, slog.New(slog.NewTextHandler(io.Discard, nil))), sess
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   map[string]string{"code": code, "message": message},
	})
}

func liveToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("k"))
	require.NoError(t, err)
	return signed
}

func TestSigninStoresTokens(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mina", req["username"])

		writeSuccess(w, http.StatusOK, map[string]any{
			"user":          map[string]any{"id": 1, "username": "mina", "name": "Mina"},
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
		})
	})

	client, sess := testClient(t, mux)
	require.NoError(t, client.Signin(context.Background(), "mina", "pw123456"))

	assert.Equal(t, "access-1", sess.AccessToken())
	assert.Equal(t, "refresh-1", sess.RefreshToken())
	assert.Equal(t, "mina", sess.Username())
}

func TestCreatePostSendsMultipart(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/boards", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "hello", r.FormValue("title"))
		assert.Equal(t, "FREE", r.FormValue("category"))

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "cat.png", header.Filename)
		data, _ := io.ReadAll(file)
		assert.Equal(t, []byte{1, 2, 3}, data)

		writeSuccess(w, http.StatusCreated, map[string]any{"id": 7})
	})

	client, sess := testClient(t, mux)
	sess.SetTokens(liveToken(t), "refresh-1")

	id, err := client.CreatePost(context.Background(),
		PostData{Title: "hello", Content: "body", Category: "FREE"},
		&imaging.File{Name: "cat.png", Data: []byte{1, 2, 3}},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestRefreshAndRetryOn401(t *testing.T) {
	var attempts int
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/v1/boards/3", func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if r.Header.Get("Authorization") != "Bearer fresh-access" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{"id": 3})
	})
	mux.HandleFunc("POST /api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "refresh-old", req["refresh_token"])

		writeSuccess(w, http.StatusOK, map[string]any{
			"access_token":  "fresh-access",
			"refresh_token": "refresh-new",
		})
	})

	client, sess := testClient(t, mux)
	sess.SetTokens(liveToken(t), "refresh-old")

	err := client.UpdatePost(context.Background(), 3,
		PostData{Title: "t", Content: "c", Category: "FREE"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, attempts)
	assert.Equal(t, "refresh-new", sess.RefreshToken())
}

func TestServerErrorMapping(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/boards", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "image exceeds the size limit")
	})

	client, sess := testClient(t, mux)
	sess.SetTokens(liveToken(t), "")

	_, err := client.CreatePost(context.Background(),
		PostData{Title: "t", Content: "c", Category: "FREE"}, nil)
	require.Error(t, err)

	assert.Equal(t, http.StatusRequestEntityTooLarge, StatusOf(err))
	assert.Equal(t, "image exceeds the size limit", MessageOf(err))
}

func TestDeletePostSendsAuthorizedRequest(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/v1/boards/7", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeSuccess(w, http.StatusOK, map[string]any{"id": 7})
	})

	client, sess := testClient(t, mux)
	token := liveToken(t)
	sess.SetTokens(token, "")

	require.NoError(t, client.DeletePost(context.Background(), 7))
	assert.Equal(t, "Bearer "+token, gotAuth)
}

func TestFetchImageResolvesRelativeURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /static/uploads/a.jpg", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{9, 9})
	})

	client, _ := testClient(t, mux)

	data, err := client.FetchImage(context.Background(), "/static/uploads/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9}, data)
}
