package main

import (
	"fmt"
	"log"

	"github.com/chewxy/math32"
	"github.com/dragonikpl/spine-runtimes/common"
	"github.com/dragonikpl/spine-runtimes/engine/assembler"
	"github.com/dragonikpl/spine-runtimes/engine/layer"
	"github.com/dragonikpl/spine-runtimes/engine/rig"
	"github.com/dragonikpl/spine-runtimes/engine/skeleton"
)

const (
	minZoom, maxZoom   = 0.05, 20
	minSpeed, maxSpeed = 0.125, 8
	// fitMargin leaves room around the skeleton when fitting it to the window.
	fitMargin = 1.2
)

// viewer applies user input to one skeleton layer. Input arrives on the window goroutine, while
// the rig may only be touched between frames, so commands are queued and applied by apply.
type viewer struct {
	rig   rig.Rig
	layer layer.SkeletonLayer

	animations []string
	animation  int
	loop       bool
	skins      []string
	skin       int

	speed  float32
	paused bool

	zoom       float32
	panX, panY float32

	commands chan func()
}

// newViewer creates a viewer for the layer's rig and starts its configured animation.
func newViewer(r rig.Rig, l layer.SkeletonLayer, animation string, loop bool, speed float32) (*viewer, error) {
	data := r.Data()
	v := &viewer{
		rig:      r,
		layer:    l,
		loop:     loop,
		speed:    common.Coalesce(speed, 1),
		zoom:     1,
		commands: make(chan func(), 64),
	}
	for _, a := range data.Animations {
		v.animations = append(v.animations, a.Name)
	}
	for _, s := range data.Skins {
		v.skins = append(v.skins, s.Name)
	}
	for i, s := range v.skins {
		if s == r.Skin() {
			v.skin = i
		}
	}

	v.animation = -1
	for i, a := range v.animations {
		if a == animation {
			v.animation = i
		}
	}
	if animation != "" && v.animation < 0 {
		return nil, fmt.Errorf("unknown animation %q", animation)
	}
	if v.animation >= 0 {
		if err := v.play(); err != nil {
			return nil, err
		}
	}
	l.State().SetTimeScale(v.speed)
	return v, nil
}

// fit scales and centers the skeleton's setup pose inside a window of the given framebuffer size.
func (v *viewer) fit(width, height int) {
	bounds := skeleton.Bounds(v.rig.Pose(nil))
	if bounds.Empty() || width <= 0 || height <= 0 {
		return
	}
	x, y := v.rig.Position()
	cx, cy := bounds.X+bounds.Width/2, bounds.Y+bounds.Height/2
	v.rig.SetPosition(x-cx, y-cy)
	v.zoom = clampf(math32.Min(
		float32(width)/(bounds.Width*fitMargin),
		float32(height)/(bounds.Height*fitMargin),
	), minZoom, maxZoom)
}

// viewport returns the assembler viewport for the framebuffer size at the current zoom.
func (v *viewer) viewport(width, height int) (float32, float32) {
	return float32(width) / 2 / v.zoom, float32(height) / 2 / v.zoom
}

// enqueue queues a command for the next apply, dropping it when the queue is full.
func (v *viewer) enqueue(cmd func()) {
	select {
	case v.commands <- cmd:
	default:
	}
}

// apply runs every queued command. Must be called while no frame is being prepared.
func (v *viewer) apply() {
	for {
		select {
		case cmd := <-v.commands:
			cmd()
		default:
			return
		}
	}
}

func (v *viewer) onKey(key uint32) {
	switch key {
	case common.KeyN:
		v.enqueue(v.nextAnimation)
	case common.KeyS:
		v.enqueue(v.nextSkin)
	case common.KeyT:
		v.enqueue(v.toggleTint)
	case common.KeySpace:
		v.enqueue(v.togglePause)
	case common.KeyRight:
		v.enqueue(func() { v.setSpeed(v.speed * 2) })
	case common.KeyLeft:
		v.enqueue(func() { v.setSpeed(v.speed / 2) })
	}
}

func (v *viewer) onScroll(delta float32) {
	v.enqueue(func() {
		v.zoom = clampf(v.zoom*math32.Pow(1.1, delta), minZoom, maxZoom)
	})
}

// onDrag pans by a framebuffer pixel delta; screen y grows downwards.
func (v *viewer) onDrag(dx, dy float32) {
	v.enqueue(func() {
		x, y := v.rig.Position()
		v.rig.SetPosition(x+dx/v.zoom, y-dy/v.zoom)
	})
}

func (v *viewer) play() error {
	name := v.animations[v.animation]
	duration, _ := v.rig.AnimationDuration(name)
	if _, err := v.layer.State().SetAnimation(0, name, duration, v.loop); err != nil {
		return err
	}
	log.Printf("[Viewer] animation %s (%.2fs)", name, duration)
	return nil
}

func (v *viewer) nextAnimation() {
	if len(v.animations) == 0 {
		return
	}
	v.animation = (v.animation + 1) % len(v.animations)
	if err := v.play(); err != nil {
		log.Printf("[Viewer] %v", err)
	}
}

func (v *viewer) nextSkin() {
	if len(v.skins) == 0 {
		return
	}
	v.skin = (v.skin + 1) % len(v.skins)
	if err := v.rig.SetSkin(v.skins[v.skin]); err != nil {
		log.Printf("[Viewer] %v", err)
		return
	}
	log.Printf("[Viewer] skin %s", v.skins[v.skin])
}

func (v *viewer) toggleTint() {
	a := v.layer.Assembler()
	mode := assembler.TintAttachment
	if a.TintMode() == assembler.TintAttachment {
		mode = assembler.TintWhite
	}
	a.SetTintMode(mode)
	log.Printf("[Viewer] tint %s", mode)
}

func (v *viewer) togglePause() {
	v.paused = !v.paused
	if v.paused {
		v.layer.State().SetTimeScale(0)
		return
	}
	v.layer.State().SetTimeScale(v.speed)
}

func (v *viewer) setSpeed(speed float32) {
	v.speed = clampf(speed, minSpeed, maxSpeed)
	if !v.paused {
		v.layer.State().SetTimeScale(v.speed)
	}
	log.Printf("[Viewer] speed %.3gx", v.speed)
}

// title describes the current state for the window title.
func (v *viewer) title(name string) string {
	animation := "none"
	if v.animation >= 0 {
		animation = v.animations[v.animation]
	}
	state := fmt.Sprintf("%.3gx", v.speed)
	if v.paused {
		state = "paused"
	}
	return fmt.Sprintf("%s | %s | %s | %s", name, animation, v.rig.Skin(), state)
}

func clampf(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}
