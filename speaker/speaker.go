// Package speaker plays raw PCM through the default output device. It is
// the playback half of network speech synthesis.
package speaker

type Speaker struct{}

func New() *Speaker {
	return &Speaker{}
}

func samplesFromBytes(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(uint16(pcm[i*2]) | uint16(pcm[i*2+1])<<8)
	}
	return samples
}
