// Package scw reads and writes skin weight files.
//
// A .scw file is line oriented utf-8 text:
//
//	scw 1
//	geometry "bodyShape"
//	cluster "skinCluster1"
//	attributes 1 5 4
//	influences 2
//	"jointA"
//	"jointB"
//	vertices 3
//	2 0 0.6 1 0.4
//	1 0 1
//	2 1 0.3 0 0.7
//
// Every vertex record is the entries count followed by influence index / weight pairs.
// cluster and attributes lines are optional, '#' starts a comment.
package scw

const (
	Magic   = "scw"
	Version = 1

	// significant digits of written weights
	WeightPrecision = 9
)

const (
	keyGeometry   = "geometry"
	keyCluster    = "cluster"
	keyAttributes = "attributes"
	keyInfluences = "influences"
	keyVertices   = "vertices"
)
