// Package roster holds the set of reference face embeddings the server
// matches live captures against, one per enrolled person.
package roster

// Identity is a single enrolled person: a unique name and the master
// embedding averaged from their dataset samples.
type Identity struct {
	Name      string
	Embedding []float32
}
