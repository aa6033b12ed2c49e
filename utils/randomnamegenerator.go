package utils

import (
	"math/rand"
	"strings"

	"github.com/Pallinder/go-randomdata"
)

// RandomNameGenerator produces unique node-like names, deterministic per process.
type RandomNameGenerator map[string]struct{}

func (rng *RandomNameGenerator) RandomName() string {
	if *rng == nil {
		*rng = make(map[string]struct{})
		randomdata.CustomRand(rand.New(rand.NewSource(0)))
	}
	for {
		name := strings.Replace(randomdata.SillyName(), " ", "_", -1)
		// avoid duplicate names
		if _, exists := (*rng)[name]; !exists {
			(*rng)[name] = struct{}{}
			return name
		}
	}
}

func (rng *RandomNameGenerator) RandomNames(count int) []string {
	names := make([]string, count)
	for i := range names {
		names[i] = rng.RandomName()
	}
	return names
}
