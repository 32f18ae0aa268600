// Package tests provides integration test helpers and utilities.
package tests

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// testEmbeddingDims matches the vector(1536) columns in db/schema.sql.
const testEmbeddingDims = 1536

var (
	testPool *pgxpool.Pool
	setupErr error
)

// requireDB returns the shared test pool, skipping the test when the container
// could not be started.
func requireDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testPool == nil {
		t.Skipf("postgres container unavailable: %v", setupErr)
	}

	return testPool
}

// unitVec returns a 1536-dim unit vector along the given axis. Cosine
// similarity between different axes is exactly zero, which makes ranking
// assertions deterministic.
func unitVec(axis int) []float32 {
	v := make([]float32, testEmbeddingDims)
	v[axis] = 1

	return v
}

// blendVec returns a blend of two axes with the given weights.
func blendVec(axisA int, weightA float32, axisB int, weightB float32) []float32 {
	v := make([]float32, testEmbeddingDims)
	v[axisA] = weightA
	v[axisB] = weightB

	return v
}
