package extract

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Inspection summarizes the document structure relevant to OCR.
type Inspection struct {
	PageCount int
	HasImages bool
}

func inspectPDF(data []byte) (ins Inspection, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdfcpu panic: %v", rec)
		}
	}()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return Inspection{}, fmt.Errorf("pdfcpu read: %w", err)
	}
	ins.PageCount = ctx.PageCount
	ins.HasImages = hasImageStreams(ctx)
	return ins, nil
}

func hasImageStreams(ctx *model.Context) bool {
	if ctx.Optimize != nil {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
				return true
			}
		}
	}
	// Optimization stats can miss images referenced indirectly.
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}
