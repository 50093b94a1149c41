package tracker

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEnv = StaticEnvironment{
	Agent:    "Mozilla/5.0 (X11; Linux x86_64)",
	Lang:     "en-US",
	Width:    1920,
	Height:   1080,
	TZOffset: -60,
	Canvas:   "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAMgAAAAyCAYAAAAZUZThAAAA",
}

type brokenStorage struct{}

func (brokenStorage) Get(string) (string, bool, error) { return "", false, ErrStorageUnavailable }
func (brokenStorage) Set(string, string) error { return ErrStorageUnavailable }

func TestFingerprintHash(t *testing.T) {
	assert.Equal(t, int32(0), fingerprintHash(""))
	assert.Equal(t, int32(97), fingerprintHash("a"))
	// 'a'*31 + 'b'
	assert.Equal(t, int32(3105), fingerprintHash("ab"))
	// Long inputs wrap instead of overflowing.
	long := strings.Repeat("z", 1000)
	assert.Equal(t, fingerprintHash(long), fingerprintHash(long))
}

func TestGetOrCreateVisitorID_CreatesAndPersists(t *testing.T) {
	store := NewMemoryStorage()

	id := GetOrCreateVisitorID(testEnv, store, nil)
	require.True(t, strings.HasPrefix(id, "visitor_"), id)

	stored, ok, err := store.Get(VisitorIDKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, stored)
}

func TestGetOrCreateVisitorID_Idempotent(t *testing.T) {
	store := NewMemoryStorage()
	first := GetOrCreateVisitorID(testEnv, store, nil)

	other := testEnv
	other.Agent = "curl/8.0"
	for range 5 {
		assert.Equal(t, first, GetOrCreateVisitorID(other, store, nil))
	}
}

func TestGetOrCreateVisitorID_ReturnsStoredValue(t *testing.T) {
	store := NewMemoryStorage()
	require.NoError(t, store.Set(VisitorIDKey, "visitor_existing"))

	assert.Equal(t, "visitor_existing", GetOrCreateVisitorID(testEnv, store, nil))
}

func TestGetOrCreateVisitorID_Deterministic(t *testing.T) {
	a := GetOrCreateVisitorID(testEnv, NewMemoryStorage(), nil)
	b := GetOrCreateVisitorID(testEnv, NewMemoryStorage(), nil)
	assert.Equal(t, a, b)

	other := testEnv
	other.Width = 1280
	assert.NotEqual(t, a, GetOrCreateVisitorID(other, NewMemoryStorage(), nil))
}

func TestGetOrCreateVisitorID_DegradesWithoutCanvasOrStorage(t *testing.T) {
	env := testEnv
	env.Canvas = ""
	env.CanvasErr = errors.New("canvas blocked")

	id := GetOrCreateVisitorID(env, brokenStorage{}, nil)
	assert.True(t, strings.HasPrefix(id, "visitor_"))

	noCanvas := testEnv
	noCanvas.Canvas = ""
	assert.Equal(t, GetOrCreateVisitorID(noCanvas, nil, nil), id)
}

func TestComposite_UsesCanvasTail(t *testing.T) {
	env := testEnv
	env.Canvas = strings.Repeat("x", 10) + strings.Repeat("y", canvasTailLength)

	c := composite(env, zapNop())
	assert.True(t, strings.HasSuffix(c, "|"+strings.Repeat("y", canvasTailLength)))
	assert.Contains(t, c, "|1920x1080|-60|")
}
