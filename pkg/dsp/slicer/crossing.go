package slicer

// CrossingSlicer reports the frames at which the first channel of an
// interleaved signal swings from negative to positive. Samples whose magnitude
// does not exceed the threshold are ignored entirely, so noise around zero
// never produces a crossing. Only rising edges count: the tape encoder shapes
// every pulse as one sine cycle, so one rising edge per pulse is enough.
type CrossingSlicer struct {
	threshold int64
	channels  int

	last  int32
	frame int
	phase int
}

func NewCrossingSlicer(threshold int32, channels int) *CrossingSlicer {
	if channels < 1 {
		channels = 1
	}
	return &CrossingSlicer{
		threshold: int64(threshold),
		channels:  channels,
	}
}

// WorkBuffer scans input and writes absolute frame indices of crossings into
// output. Indices count frames, not interleaved samples, so a stereo
// recording times its pulses the same as the mono one. State carries over between calls so a signal can be fed in chunks.
func (c *CrossingSlicer) WorkBuffer(input []int32, output []int) int {
	n := 0
	for i := 0; i < len(input); i++ {
		if c.phase == 0 {
			if c.cross(input[i]) {
				output[n] = c.frame
				n++
			}
		}

		c.phase++
		if c.phase == c.channels {
			c.phase = 0
			c.frame++
		}
	}
	return n
}

func (c *CrossingSlicer) cross(v int32) bool {
	mag := int64(v)
	if mag < 0 {
		mag = -mag
	}
	if mag <= c.threshold {
		return false
	}

	crossed := c.last < 0 && v > 0
	c.last = v
	return crossed
}

func (c *CrossingSlicer) Work(input []int32) []int {
	ret := make([]int, c.PredictOutputSize(len(input)))
	n := c.WorkBuffer(input, ret)
	return ret[:n]
}

func (c *CrossingSlicer) PredictOutputSize(inputSize int) int {
	return inputSize/c.channels + 1
}

// Frame returns the number of whole frames consumed so far.
func (c *CrossingSlicer) Frame() int {
	return c.frame
}
