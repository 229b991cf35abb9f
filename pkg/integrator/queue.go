package integrator

import "image"

// WorkQueue enumerates the (pixel, sample) pairs of one tile. Every pixel
// receives sample s before any pixel receives sample s+1.
type WorkQueue struct {
	bounds      image.Rectangle
	filmWidth   int
	firstSample int
	total       int
	next        int
}

// NewWorkQueue covers samples [firstSample, endSample) of every pixel in bounds
func NewWorkQueue(bounds image.Rectangle, filmWidth, firstSample, endSample int) *WorkQueue {
	total := 0
	if endSample > firstSample && !bounds.Empty() {
		total = bounds.Dx() * bounds.Dy() * (endSample - firstSample)
	}
	return &WorkQueue{
		bounds:      bounds,
		filmWidth:   filmWidth,
		firstSample: firstSample,
		total:       total,
	}
}

// Len returns how many pairs are left
func (q *WorkQueue) Len() int { return q.total - q.next }

// Next pops the next pair. ok is false once the queue is drained.
func (q *WorkQueue) Next() (x, y, pixel, sample int, ok bool) {
	if q.next >= q.total {
		return 0, 0, 0, 0, false
	}
	area := q.bounds.Dx() * q.bounds.Dy()
	local := q.next % area
	sample = q.firstSample + q.next/area
	x = q.bounds.Min.X + local%q.bounds.Dx()
	y = q.bounds.Min.Y + local/q.bounds.Dx()
	q.next++
	return x, y, y*q.filmWidth + x, sample, true
}
