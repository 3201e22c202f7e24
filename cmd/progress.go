package cmd

import (
	"io"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/RyanBlaney/chipper/batch"
)

type progressBar struct {
	p   *mpb.Progress
	bar *mpb.Bar
}

func newProgressBar(out io.Writer, name string, total int) *progressBar {
	p := mpb.New(mpb.WithWidth(64), mpb.WithOutput(out))
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(name),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.Name(" "),
			decor.AverageETA(decor.ET_STYLE_GO),
		),
	)
	return &progressBar{p: p, bar: bar}
}

// update is registered as the batch progress callback
func (b *progressBar) update(batch.Progress) {
	b.bar.Increment()
}

// wait blocks until the bar has rendered its final state
func (b *progressBar) wait() {
	if !b.bar.Completed() {
		b.bar.Abort(false)
	}
	b.p.Wait()
}
