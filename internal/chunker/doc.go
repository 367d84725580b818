// Package chunker divides extracted document text into overlapping
// word-window chunks for embedding and retrieval.
//
// Chunks are sized and overlapped in whitespace-delimited words. Character
// offsets index into the original text, so the chain of chunks reconstructs
// the source exactly once the duplicated overlap is dropped:
//
//	c, _ := chunker.New(3500, 400)
//	chunks, err := c.Chunk(text)
//	if errors.Is(err, types.ErrEmptyDocument) {
//	    // report and continue with the next file
//	}
//
// Consecutive chunks share exactly the configured overlap: chunk i+1 begins
// overlap words before chunk i's nominal end. The final chunk may be shorter
// than the target size, and a document shorter than one chunk yields a single
// chunk equal to the full text.
package chunker
