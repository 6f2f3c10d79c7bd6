package system

import (
	"image"
	"sync"
)

// GrayPool recycles *image.Gray buffers per size so consecutive pages of
// the same dimensions do not allocate.
type GrayPool struct {
	pools map[image.Point]*sync.Pool
	mu    sync.RWMutex
}

var globalPool = NewGrayPool()

func NewGrayPool() *GrayPool {
	return &GrayPool{pools: make(map[image.Point]*sync.Pool)}
}

// GetGray returns a w x h gray image anchored at the origin. Its contents
// are undefined.
func GetGray(w, h int) *image.Gray {
	return globalPool.Get(w, h)
}

// PutGray returns an image to the pool
func PutGray(img *image.Gray) {
	globalPool.Put(img)
}

func (p *GrayPool) pool(size image.Point) *sync.Pool {
	p.mu.RLock()
	pool, exists := p.pools[size]
	p.mu.RUnlock()
	if exists {
		return pool
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Double check
	if pool, exists = p.pools[size]; !exists {
		pool = &sync.Pool{
			New: func() interface{} {
				return image.NewGray(image.Rectangle{Max: size})
			},
		}
		p.pools[size] = pool
	}
	return pool
}

func (p *GrayPool) Get(w, h int) *image.Gray {
	return p.pool(image.Pt(w, h)).Get().(*image.Gray)
}

func (p *GrayPool) Put(img *image.Gray) {
	if img == nil || img.Rect.Min != (image.Point{}) {
		return
	}
	p.pool(img.Rect.Max).Put(img)
}
