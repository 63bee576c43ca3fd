package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargetKeyStableAcrossRuns(t *testing.T) {
	url := "https://www.amazon.in/s?k=shoes"
	assert.Equal(t, TargetKey(url), TargetKey(url))
	assert.Equal(t, TargetKey(url), TargetKey("  "+url+"\n"))
}

func TestTargetKeyDistinguishesTargets(t *testing.T) {
	assert.NotEqual(t,
		TargetKey("https://www.amazon.in/s?k=shoes"),
		TargetKey("https://www.amazon.in/s?k=socks"))
}
