package viewstate

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threatconsole/internal/gateway"
)

func TestTracker_SupersededTokenIsStale(t *testing.T) {
	tr := NewTracker(16)

	first := tr.Begin("s1", "users")
	assert.True(t, tr.Current("s1", "users", first))

	second := tr.Begin("s1", "users")
	assert.NotEqual(t, first, second)
	assert.False(t, tr.Current("s1", "users", first))
	assert.True(t, tr.Current("s1", "users", second))
}

func TestTracker_ViewsAndSessionsIndependent(t *testing.T) {
	tr := NewTracker(16)

	u := tr.Begin("s1", "users")
	tr.Begin("s1", "logs")
	tr.Begin("s2", "users")

	assert.True(t, tr.Current("s1", "users", u))
	assert.True(t, tr.Current("s3", "users", "anything"))
}

func TestTracker_Forget(t *testing.T) {
	tr := NewTracker(16)
	a := tr.Begin("s1", "users")
	tr.Begin("s1", "users")
	keep := tr.Begin("s2", "users")

	tr.Forget("s1")
	assert.True(t, tr.Current("s1", "users", a))
	assert.True(t, tr.Current("s2", "users", keep))
	assert.Equal(t, 1, tr.Len())
}

func TestTracker_EvictsOldest(t *testing.T) {
	tr := NewTracker(2)
	old := tr.Begin("s1", "users")
	tr.Begin("s1", "users")
	tr.Begin("s2", "users")
	tr.Begin("s3", "users")

	assert.Equal(t, 2, tr.Len())
	assert.True(t, tr.Current("s1", "users", old))
}

func TestTracker_Concurrent(t *testing.T) {
	tr := NewTracker(0)
	var wg sync.WaitGroup
	tokens := make([]string, 32)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i] = tr.Begin("s1", "logs")
		}(i)
	}
	wg.Wait()

	current := 0
	for _, tok := range tokens {
		if tr.Current("s1", "logs", tok) {
			current++
		}
	}
	assert.Equal(t, 1, current)
}

func TestView(t *testing.T) {
	v := Succeeded([]int{1}, gateway.ProvenanceFallback, "t")
	assert.True(t, v.Loaded())
	assert.True(t, v.FromDemo())
	assert.Equal(t, "success", v.Phase.String())

	f := Failed[[]int](errors.New("x"), "t")
	require.True(t, f.Failed())
	assert.False(t, f.FromDemo())
	assert.Equal(t, "idle", View[int]{}.Phase.String())
}
