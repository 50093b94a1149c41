package tracker

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"go.uber.org/zap"
)

// VisitorIDKey is the storage key holding the persisted visitor identifier.
const VisitorIDKey = "visitor_id"

const canvasTailLength = 50

// Environment exposes the client characteristics that feed the fingerprint.
type Environment interface {
	UserAgent() string
	Language() string
	ScreenSize() (width, height int)
	// TimezoneOffset is minutes behind UTC, as browsers report it.
	TimezoneOffset() int
	// CanvasData returns the pixel encoding of fixed text rendered offscreen.
	CanvasData() (string, error)
}

// StaticEnvironment is an Environment with fixed values.
type StaticEnvironment struct {
	Agent     string
	Lang      string
	Width     int
	Height    int
	TZOffset  int
	Canvas    string
	CanvasErr error
}

func (e StaticEnvironment) UserAgent() string { return e.Agent }
func (e StaticEnvironment) Language() string { return e.Lang }
func (e StaticEnvironment) ScreenSize() (int, int) { return e.Width, e.Height }
func (e StaticEnvironment) TimezoneOffset() int { return e.TZOffset }
func (e StaticEnvironment) CanvasData() (string, error) { return e.Canvas, e.CanvasErr }

// GetOrCreateVisitorID returns the stored visitor identifier, deriving and
// persisting a new one when none exists. It never fails: a blocked canvas or
// storage only makes the identifier less stable.
func GetOrCreateVisitorID(env Environment, store Storage, logger *zap.Logger) string {
	if logger == nil {
		logger = zap.NewNop()
	}

	if store != nil {
		id, ok, err := store.Get(VisitorIDKey)
		switch {
		case err != nil:
			logger.Warn("visitor id read failed", zap.Error(err))
		case ok && id != "":
			return id
		}
	}

	id := "visitor_" + strconv.FormatInt(abs64(int64(fingerprintHash(composite(env, logger)))), 36)

	if store != nil {
		if err := store.Set(VisitorIDKey, id); err != nil {
			logger.Warn("visitor id persist failed", zap.Error(err))
		}
	}
	return id
}

func composite(env Environment, logger *zap.Logger) string {
	w, h := env.ScreenSize()

	canvas, err := env.CanvasData()
	if err != nil {
		logger.Debug("canvas fingerprint unavailable", zap.Error(err))
		canvas = ""
	}
	if len(canvas) > canvasTailLength {
		canvas = canvas[len(canvas)-canvasTailLength:]
	}

	return strings.Join([]string{
		env.UserAgent(),
		env.Language(),
		fmt.Sprintf("%dx%d", w, h),
		strconv.Itoa(env.TimezoneOffset()),
		canvas,
	}, "|")
}

// fingerprintHash is the multiply-by-31 rolling hash over UTF-16 code units,
// wrapped to signed 32 bits.
func fingerprintHash(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	return h
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
