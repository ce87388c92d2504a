package app

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ayursense/domain/dosha"
)

func TestStore_GetReturnsDetachedSnapshot(t *testing.T) {
	store := NewConsultationStore()
	c := store.Create()

	got, err := store.Get(c.ID)
	require.NoError(t, err)

	// Writing through the snapshot must not leak into the store.
	got.Results[dosha.ModalityTongue] = tongueResult()
	got.Status = StatusCompleted

	fresh, err := store.Get(c.ID)
	require.NoError(t, err)
	assert.Empty(t, fresh.Results)
	assert.Equal(t, StatusActive, fresh.Status)
}

func TestStore_UpdateReturnsDetachedSnapshot(t *testing.T) {
	store := NewConsultationStore()
	c := store.Create()

	updated, err := store.Update(c.ID, func(c *Consultation) error {
		c.Results[dosha.ModalityTongue] = tongueResult()
		return nil
	})
	require.NoError(t, err)
	delete(updated.Results, dosha.ModalityTongue)

	fresh, err := store.Get(c.ID)
	require.NoError(t, err)
	assert.Len(t, fresh.Results, 1)
}

func TestStore_ConcurrentReadersAndWriters(t *testing.T) {
	store := NewConsultationStore()
	c := store.Create()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, err := store.Update(c.ID, func(c *Consultation) error {
					r := tongueResult()
					r.Modality = fmt.Sprintf("modality-%d", i)
					c.Results[r.Modality] = r
					return nil
				})
				assert.NoError(t, err)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got, err := store.Get(c.ID)
				assert.NoError(t, err)
				_, err = json.Marshal(got)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	final, err := store.Get(c.ID)
	require.NoError(t, err)
	assert.Len(t, final.Results, 8)
}
