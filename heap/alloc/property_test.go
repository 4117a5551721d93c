package alloc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// liveBlock tracks what a test wrote into an allocation.
type liveBlock struct {
	ref  Ref
	n    int
	seed byte
}

// TestProperty_RandomOperations drives a random mix of every operation and
// checks the block list, the accounting identity and every live payload
// after each step.
func TestProperty_RandomOperations(t *testing.T) {
	for _, seed := range []int64{1, 7, 42, 1234, 99991} {
		rng := rand.New(rand.NewSource(seed))
		a := newTestAllocatorWithOptions(t, 4<<20, &Options{InitialSize: 4096, MinExtend: 1024})
		var live []liveBlock

		for step := range 2000 {
			switch op := rng.Intn(10); {
			case op < 4 || len(live) == 0:
				n := 1 + rng.Intn(600)
				ref := mustAllocate(t, a, n)
				s := byte(rng.Intn(256))
				fill(t, a, ref, n, s)
				live = append(live, liveBlock{ref, n, s})

			case op < 5:
				c, sz := 1+rng.Intn(16), 1+rng.Intn(32)
				ref, err := a.ZeroAllocate(c, sz)
				require.NoError(t, err)
				p, err := a.Bytes(ref)
				require.NoError(t, err)
				for i := range c * sz {
					require.Zero(t, p[i], "seed %d step %d: calloc byte %d", seed, step, i)
				}
				s := byte(rng.Intn(256))
				fill(t, a, ref, c*sz, s)
				live = append(live, liveBlock{ref, c * sz, s})

			case op < 8:
				i := rng.Intn(len(live))
				require.NoError(t, a.Deallocate(live[i].ref))
				live[i] = live[len(live)-1]
				live = live[:len(live)-1]

			default:
				i := rng.Intn(len(live))
				b := live[i]
				n := 1 + rng.Intn(1200)
				ref, err := a.Reallocate(b.ref, n)
				require.NoError(t, err)
				requirePattern(t, a, ref, min(b.n, n), b.seed)
				s := byte(rng.Intn(256))
				fill(t, a, ref, n, s)
				live[i] = liveBlock{ref, n, s}
			}

			assertInvariants(t, a)
			if step%100 == 0 {
				for _, b := range live {
					requirePattern(t, a, b.ref, b.n, b.seed)
				}
			}
		}

		for _, b := range live {
			requirePattern(t, a, b.ref, b.n, b.seed)
			require.NoError(t, a.Deallocate(b.ref))
		}
		assert.Equal(t, 1, a.BlockCount(), "seed %d: free blocks must coalesce into one", seed)
		assert.Equal(t, a.ArenaSize()-HeaderSize, a.FreeBytes())
	}
}

// TestProperty_NoOverlap checks live payloads never share bytes.
func TestProperty_NoOverlap(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a := newTestAllocator(t, 4<<20)
	live := map[Ref]int{}

	for range 3000 {
		if len(live) > 0 && rng.Intn(3) == 0 {
			for ref := range live {
				require.NoError(t, a.Deallocate(ref))
				delete(live, ref)
				break
			}
			continue
		}
		n := 1 + rng.Intn(256)
		ref := mustAllocate(t, a, n)
		require.Zero(t, int(ref)%Alignment)
		for other, m := range live {
			disjoint := int(ref)+n <= int(other) || int(other)+m <= int(ref)
			require.True(t, disjoint, "%#x+%d overlaps %#x+%d", ref, n, other, m)
		}
		live[ref] = n
	}
}
