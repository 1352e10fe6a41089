package sharing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGF256InverseIdentity(t *testing.T) {
	for i := 1; i < 256; i++ {
		a := GF256(i)
		assert.Equal(t, One(), a.Mul(a.Inv()))
	}
}

func TestGF256DivByOneIsIdentity(t *testing.T) {
	a := GF256(173)
	assert.Equal(t, a, a.Div(One()))
}

func TestGF256AddIsXor(t *testing.T) {
	assert.Equal(t, GF256(0x12^0x34), GF256(0x12).Add(GF256(0x34)))
}
