package codec

import (
	"encoding/binary"
	"math"

	"github.com/orneryd/amem/internal/model"
)

// buildVectorBlock lays out one dimension*4-byte row per node, in node-id
// order, zero-filled for nodes with no vector (§6.1 "unused slots are all
// zeros"). Returns the block bytes plus, per node, the element-index
// VectorOffset to store in its node record (model.NoVector if absent).
func buildVectorBlock(nodes []model.Node, dimension int) (block []byte, offsets []uint64) {
	block = make([]byte, len(nodes)*dimension*4)
	offsets = make([]uint64, len(nodes))
	for i, n := range nodes {
		if n.Vector == nil {
			offsets[i] = model.NoVector
			continue
		}
		offsets[i] = uint64(i) * uint64(dimension)
		row := block[i*dimension*4 : (i+1)*dimension*4]
		for j := 0; j < dimension && j < len(n.Vector); j++ {
			binary.LittleEndian.PutUint32(row[j*4:j*4+4], math.Float32bits(n.Vector[j]))
		}
	}
	return block, offsets
}

// readVector extracts the dimension-length float32 row starting at
// element index offset from a decoded vector block.
func readVector(block []byte, offset uint64, dimension int) []float32 {
	if offset == model.NoVector {
		return nil
	}
	byteOff := offset * 4
	out := make([]float32, dimension)
	for j := 0; j < dimension; j++ {
		start := int(byteOff) + j*4
		out[j] = math.Float32frombits(binary.LittleEndian.Uint32(block[start : start+4]))
	}
	return out
}
