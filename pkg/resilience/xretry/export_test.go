package xretry

// SetRandom 替换随机源，仅用于测试。
func (b *Backoff) SetRandom(f func() float64) {
	b.random = f
}
