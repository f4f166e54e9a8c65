// Package names generates adjective-animal display names such as "swift-fox".
package names

import (
	"math/rand/v2"
	"strconv"
	"strings"
)

var adjectives = strings.Fields(`
	amber bold bright calm clever cool crisp daring eager fair
	fast fierce gentle glad golden grand happy hardy keen kind
	light lively lucky merry mighty noble pale proud quick quiet
	rapid ready rosy sharp shy sleek slim smart soft steady
	still stout strong sunny sure sweet swift tall warm wise`)

var animals = strings.Fields(`
	ant bat bear bee bird buck bull cat colt crab
	crow deer doe dove duck elk fawn fish frog goat
	hare hawk jay lark lion lynx mole moth newt orca
	owl puma ram rat seal slug snail swan toad vole
	wasp whale wolf wren yak fox ape asp cod emu`)

// Generate returns a random adjective-animal pair.
func Generate() string {
	return adjectives[rand.IntN(len(adjectives))] + "-" + animals[rand.IntN(len(animals))]
}

// GenerateUnique avoids names already in taken, giving up after a bounded
// number of attempts and falling back to a numeric suffix.
func GenerateUnique(taken map[string]bool) string {
	for range 64 {
		n := Generate()
		if !taken[n] {
			return n
		}
	}
	base := Generate()
	for i := 2; ; i++ {
		n := base + "-" + strconv.Itoa(i)
		if !taken[n] {
			return n
		}
	}
}

// Count is the size of the name space.
func Count() int {
	return len(adjectives) * len(animals)
}
