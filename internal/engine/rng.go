package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
)

// ErrInvalidRange is returned when UniformInt is called with low > high.
var ErrInvalidRange = errors.New("invalid range")

// ErrUnknownSource is returned for an unrecognised source kind.
var ErrUnknownSource = errors.New("unknown random source")

// Source kinds accepted by NewTrialSource.
const (
	SourcePCG  = "pcg"
	SourceHMAC = "hmac"
)

// Source produces the randomness consumed by a single trial.
// Implementations are not safe for concurrent use; every trial owns its own.
type Source interface {
	// UniformInt returns an integer in [low, high], each value equiprobable.
	UniformInt(low, high int) (int, error)
	// Shuffle permutes n elements uniformly at random via swap.
	Shuffle(n int, swap func(i, j int))
}

// PCGSource is a fast seedable Source backed by math/rand/v2 PCG.
type PCGSource struct {
	rng *rand.Rand
}

// NewPCGSource creates a PCG-backed source from a 128-bit seed.
func NewPCGSource(seed1, seed2 uint64) *PCGSource {
	return &PCGSource{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// UniformInt returns an integer in [low, high].
func (s *PCGSource) UniformInt(low, high int) (int, error) {
	if low > high {
		return 0, fmt.Errorf("%w: low %d > high %d", ErrInvalidRange, low, high)
	}
	return low + s.rng.IntN(high-low+1), nil
}

// Shuffle permutes n elements.
func (s *PCGSource) Shuffle(n int, swap func(i, j int)) {
	s.rng.Shuffle(n, swap)
}

// HMACSource streams bytes from HMAC-SHA256(key, "client:nonce:round") and turns
// every four bytes into a float in [0, 1). Given the same key, client and nonce
// the stream is identical on every platform, which makes a trial replayable from
// its published inputs alone.
type HMACSource struct {
	key    string
	client string
	nonce  uint64
	round  uint64
	pos    int
	buffer [32]byte
}

// NewHMACSource creates a byte-stream source positioned at cursor.
func NewHMACSource(key, client string, nonce uint64, cursor uint64) *HMACSource {
	s := &HMACSource{
		key:    key,
		client: client,
		nonce:  nonce,
		round:  cursor / 32,
		pos:    int(cursor % 32),
	}
	s.fill()
	return s
}

func (s *HMACSource) next() byte {
	if s.pos >= 32 {
		s.round++
		s.pos = 0
		s.fill()
	}
	b := s.buffer[s.pos]
	s.pos++
	return b
}

func (s *HMACSource) fill() {
	h := hmac.New(sha256.New, []byte(s.key))
	fmt.Fprintf(h, "%s:%d:%d", s.client, s.nonce, s.round)
	copy(s.buffer[:], h.Sum(nil))
}

// Float returns the next float in [0, 1) built from four stream bytes.
func (s *HMACSource) Float() float64 {
	return bytesToFloat([4]byte{s.next(), s.next(), s.next(), s.next()})
}

// UniformInt returns low + floor(f * (high-low+1)).
func (s *HMACSource) UniformInt(low, high int) (int, error) {
	if low > high {
		return 0, fmt.Errorf("%w: low %d > high %d", ErrInvalidRange, low, high)
	}
	span := high - low + 1
	v := int(math.Floor(s.Float() * float64(span)))
	if v >= span {
		v = span - 1
	}
	return low + v, nil
}

// Shuffle is a Fisher-Yates shuffle drawing from the byte stream.
func (s *HMACSource) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j, _ := s.UniformInt(0, i)
		swap(i, j)
	}
}

func bytesToFloat(b [4]byte) float64 {
	result := 0.0
	for i, v := range b {
		result += float64(v) / math.Pow(256, float64(i+1))
	}
	return result
}

// DeriveSeed derives an independent 128-bit sub-seed for one trial of a stream.
// Sub-seeds depend only on (master, stream, index), never on execution order.
func DeriveSeed(master int64, stream string, index uint64) (uint64, uint64) {
	h := hmac.New(sha256.New, []byte(strconv.FormatInt(master, 10)))
	fmt.Fprintf(h, "%s:%d", stream, index)
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum[0:8]), binary.LittleEndian.Uint64(sum[8:16])
}

// NewTrialSource builds the Source for trial index of stream under master seed.
func NewTrialSource(kind string, master int64, stream string, index uint64) (Source, error) {
	switch kind {
	case "", SourcePCG:
		s1, s2 := DeriveSeed(master, stream, index)
		return NewPCGSource(s1, s2), nil
	case SourceHMAC:
		return NewHMACSource(strconv.FormatInt(master, 10), stream, index, 0), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, kind)
	}
}
