package application_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/adbudget/internal/application"
)

func TestBudgetClientProvider_GetUnknownPlatform(t *testing.T) {
	provider := application.NewBudgetClientProvider()

	_, ok := provider.Get("newsbreak")
	assert.False(t, ok)
	assert.Empty(t, provider.Platforms())
}

func TestBudgetClientProvider_ReplaceSwapsClient(t *testing.T) {
	original := &mockBudgetClient{}
	replacement := &mockBudgetClient{}

	provider := application.NewBudgetClientProvider()
	provider.Replace("newsbreak", original)

	got, ok := provider.Get("newsbreak")
	require.True(t, ok)
	assert.Same(t, original, got)

	provider.Replace("newsbreak", replacement)
	got, ok = provider.Get("newsbreak")
	require.True(t, ok)
	assert.Same(t, replacement, got)
}

func TestBudgetClientProvider_ReplaceNilRemoves(t *testing.T) {
	provider := application.NewBudgetClientProvider()
	provider.Replace("newsbreak", &mockBudgetClient{})
	provider.Replace("acme", &mockBudgetClient{})
	assert.Equal(t, []string{"acme", "newsbreak"}, provider.Platforms())

	provider.Replace("newsbreak", nil)
	_, ok := provider.Get("newsbreak")
	assert.False(t, ok)
	assert.Equal(t, []string{"acme"}, provider.Platforms())
}

func TestBudgetClientProvider_ConcurrentGetReplaceSafety(t *testing.T) {
	client1 := &mockBudgetClient{}
	client2 := &mockBudgetClient{}
	provider := application.NewBudgetClientProvider()
	provider.Replace("newsbreak", client1)

	const goroutines = 100
	var wg sync.WaitGroup
	wg.Add(goroutines * 2)

	// Half the goroutines read, half write.
	for range goroutines {
		go func() {
			defer wg.Done()
			got, ok := provider.Get("newsbreak")
			assert.True(t, ok)
			assert.NotNil(t, got)
		}()
		go func() {
			defer wg.Done()
			provider.Replace("newsbreak", client2)
		}()
	}

	wg.Wait()

	got, _ := provider.Get("newsbreak")
	assert.Same(t, client2, got)
}
