package printer

import (
	"encoding/json"
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"

	"github.com/joshuapare/heapkit/heap/alloc"
)

// streamBufferSize is the write buffer for streamed block lists.
const streamBufferSize = 4096

// printBlocksJSON streams the block list as a JSON array. Offsets are
// numbers; absent links are null.
func (p *Printer) printBlocksJSON(blocks []alloc.BlockInfo) error {
	w := jwriter.NewStreamingWriter(p.writer, streamBufferSize)

	arr := w.Array()
	for _, b := range blocks {
		obj := w.Object()
		obj.Name("index").Int(b.Index)
		obj.Name("offset").Int(b.Offset)
		obj.Name("ref").Int(int(b.Ref))
		obj.Name("size").Int(b.Size)
		if b.Free {
			obj.Name("status").String("free")
		} else {
			obj.Name("status").String("used")
		}
		if p.opts.ShowLinks {
			writeLink(obj.Name("next"), b.Next)
			writeLink(obj.Name("prev"), b.Prev)
		}
		obj.End()
	}
	arr.End()

	if err := w.Flush(); err != nil {
		return err
	}
	if err := w.Error(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(p.writer)
	return err
}

func writeLink(w *jwriter.Writer, off int) {
	if off < 0 {
		w.Null()
		return
	}
	w.Int(off)
}

// writeJSON marshals v with indentation and writes it followed by a newline.
func (p *Printer) writeJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(p.writer, "%s\n", data)
	return err
}
