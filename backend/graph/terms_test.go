package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractEntityTermsDropsStopwordsAndDuplicates(t *testing.T) {
	terms := extractEntityTerms("how does PaymentService relate to OrderQueue and PaymentService again")
	assert.Equal(t, []string{"PaymentService", "OrderQueue", "again"}, terms)
}

func TestExtractEntityTermsEmptyWhenNoCandidates(t *testing.T) {
	terms := extractEntityTerms("why is it so")
	assert.Empty(t, terms)
}
