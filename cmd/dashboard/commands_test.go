package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/rss3-network/gateway-dashboard/internal/models"
)

// keyServer serves the key routes of the gateway from memory.
type keyServer struct {
	mu   sync.Mutex
	keys map[int64]*models.Key
}

func newKeyServer(t *testing.T, keys ...*models.Key) (*keyServer, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ks := &keyServer{keys: map[int64]*models.Key{}}
	for _, k := range keys {
		ks.keys[k.ID] = k
	}

	router := gin.New()
	router.GET("/api/gateway/keys/:id", func(c *gin.Context) {
		key := ks.key(c)
		if key == nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "key not found"})
			return
		}
		c.JSON(http.StatusOK, key)
	})
	router.PUT("/api/gateway/keys/:id", func(c *gin.Context) {
		var in models.UpdateKeyInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		key := ks.key(c)
		if key == nil {
			c.Status(http.StatusNotFound)
			return
		}
		ks.mu.Lock()
		key.Name = in.Name
		ks.mu.Unlock()
		c.Status(http.StatusNoContent)
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return ks, srv.URL
}

func (ks *keyServer) key(c *gin.Context) *models.Key {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return nil
	}
	ks.mu.Lock()
	defer ks.mu.Unlock()
	return ks.keys[id]
}

func (ks *keyServer) name(id int64) string {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	return ks.keys[id].Name
}

func run(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"dashboard", "--gateway-url", url, "--session-token", "session"}, args...))
	return out.String(), err
}

func TestShowKeyMasksPasskey(t *testing.T) {
	_, url := newKeyServer(t, &models.Key{ID: 1, Name: "Prod", Passkey: "secret"})

	out, err := run(t, url, "keys", "show", "--id", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Name:    Prod")
	assert.Contains(t, out, "Passkey: ••••••")
	assert.NotContains(t, out, "secret")
}

func TestShowKeyCopyPrintsOnlyPasskey(t *testing.T) {
	_, url := newKeyServer(t, &models.Key{ID: 1, Name: "Prod", Passkey: "secret"})

	out, err := run(t, url, "keys", "show", "--id", "1", "--copy")
	require.NoError(t, err)
	assert.Equal(t, "secret", out)
}

func TestRenameKey(t *testing.T) {
	ks, url := newKeyServer(t, &models.Key{ID: 1, Name: "Prod", Passkey: "secret"})

	out, err := run(t, url, "keys", "rename", "--id", "1", "--name", "Staging")
	require.NoError(t, err)
	assert.Contains(t, out, `Key 1 renamed to "Staging"`)
	assert.Equal(t, "Staging", ks.name(1))
}

func TestRenameKeyWithoutNameKeepsCurrent(t *testing.T) {
	ks, url := newKeyServer(t, &models.Key{ID: 1, Name: "Prod", Passkey: "secret"})

	out, err := run(t, url, "keys", "rename", "--id", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `Key 1 renamed to "Prod"`)
	assert.Equal(t, "Prod", ks.name(1))
}

func TestRenameKeyRejectsBlankName(t *testing.T) {
	ks, url := newKeyServer(t, &models.Key{ID: 1, Name: "Prod", Passkey: "secret"})

	out, err := run(t, url, "keys", "rename", "--id", "1", "--name", "")
	require.Error(t, err)
	assert.Contains(t, out, "Name is required")
	assert.Equal(t, "Prod", ks.name(1))
}
