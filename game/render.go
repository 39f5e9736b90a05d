package game

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/rubble/components"
)

// Draw renders the current frame snapshot. Everything drawn here comes
// from Frame(); the render layer never reaches into simulation state.
func (g *Game) Draw() {
	frame := g.Frame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 12, G: 12, B: 20, A: 255})

	if g.debugMode {
		g.drawHaven(frame)
	}
	g.drawDebris()
	for i := range frame.Fragments {
		g.drawFragment(&frame.Fragments[i])
	}
	for _, p := range frame.Projectiles {
		g.drawProjectile(p)
	}
	if frame.Ship != nil {
		g.drawShip(frame.Ship)
	}
	g.drawHUD(frame)

	rl.EndDrawing()
}

// drawHaven shows the exclusion zone the next spawn batch will honor.
func (g *Game) drawHaven(frame *Frame) {
	sx, sy := g.camera.WorldToScreen(frame.HavenX, frame.HavenY)
	rl.DrawCircleLines(int32(sx), int32(sy), frame.HavenRadius*g.camera.Zoom,
		rl.Color{R: 60, G: 120, B: 60, A: 120})
}

// drawFragment draws a rock as its lineage silhouette, rotated by the
// fragment's spin and tinted by its inherited color.
func (g *Game) drawFragment(f *FragmentView) {
	if !g.camera.IsVisible(f.X, f.Y, f.Radius) {
		return
	}
	color := rl.Color{R: f.Color.R, G: f.Color.G, B: f.Color.B, A: 255}
	if f.Burning {
		color = rl.Color{R: 255, G: 140, B: 60, A: 255}
	}

	sx, sy := g.camera.WorldToScreen(f.X, f.Y)
	g.drawOutline(sx, sy, f, color)
	for _, ghost := range g.camera.GhostPositions(f.X, f.Y, f.Radius) {
		g.drawOutline(ghost.X, ghost.Y, f, color)
	}
}

// drawOutline strokes the fragment silhouette at one screen position.
func (g *Game) drawOutline(sx, sy float32, f *FragmentView, color rl.Color) {
	shape := g.outlines.Shape(f.OutlineKey)
	n := len(shape)
	screenRadius := f.Radius * g.camera.Zoom

	var prev rl.Vector2
	for i := 0; i <= n; i++ {
		idx := i % n
		theta := float64(f.Angle) + 2*math.Pi*float64(idx)/float64(n)
		r := shape[idx] * screenRadius
		pt := rl.Vector2{
			X: sx + float32(math.Cos(theta))*r,
			Y: sy + float32(math.Sin(theta))*r,
		}
		if i > 0 {
			rl.DrawLineV(prev, pt, color)
		}
		prev = pt
	}
}

func (g *Game) drawProjectile(p ProjectileView) {
	if !g.camera.IsVisible(p.X, p.Y, p.Radius) {
		return
	}
	sx, sy := g.camera.WorldToScreen(p.X, p.Y)
	radius := p.Radius * g.camera.Zoom
	if radius < 1.5 {
		radius = 1.5
	}
	rl.DrawCircle(int32(sx), int32(sy), radius, rl.Color{R: 255, G: 240, B: 180, A: 255})
}

// drawShip draws the reference actor as a heading triangle. Stun blinks
// it red; slow tints it blue.
func (g *Game) drawShip(s *ShipView) {
	color := rl.Color{R: 220, G: 220, B: 255, A: 255}
	switch {
	case s.Stunned:
		if (g.tick/6)%2 == 0 {
			color = rl.Color{R: 255, G: 80, B: 80, A: 255}
		}
	case s.Slowed:
		color = rl.Color{R: 120, G: 160, B: 255, A: 255}
	}

	sx, sy := g.camera.WorldToScreen(s.X, s.Y)
	r := s.Radius * g.camera.Zoom
	nose := shipVertex(sx, sy, s.Heading, r*1.6)
	left := shipVertex(sx, sy, s.Heading+2.5, r)
	right := shipVertex(sx, sy, s.Heading-2.5, r)
	rl.DrawTriangleLines(nose, left, right, color)
}

func shipVertex(sx, sy, angle, r float32) rl.Vector2 {
	return rl.Vector2{
		X: sx + float32(math.Cos(float64(angle)))*r,
		Y: sy + float32(math.Sin(float64(angle)))*r,
	}
}

// drawDebris draws the cosmetic particles, fading alpha out over life.
func (g *Game) drawDebris() {
	for i := range g.debris.Particles {
		p := &g.debris.Particles[i]
		if !g.camera.IsVisible(p.X, p.Y, p.Size) {
			continue
		}
		alpha := uint8(255 * float32(p.Life) / float32(p.MaxLife))
		sx, sy := g.camera.WorldToScreen(p.X, p.Y)
		rl.DrawCircle(int32(sx), int32(sy), p.Size*g.camera.Zoom*0.25+1,
			rl.Color{R: p.Color.R, G: p.Color.G, B: p.Color.B, A: alpha})
	}
}

// drawHUD draws score, wave, pool gauges, and the control panel.
func (g *Game) drawHUD(frame *Frame) {
	rl.DrawText(fmt.Sprintf("WAVE %d", frame.Wave), 16, 12, 24, rl.RayWhite)
	rl.DrawText(fmt.Sprintf("SCORE %d", frame.Score), 16, 40, 24, rl.RayWhite)
	if frame.Countdown > 0 {
		msg := fmt.Sprintf("next wave in %.1f", frame.Countdown)
		w := rl.MeasureText(msg, 22)
		rl.DrawText(msg, int32(g.camera.ViewportW/2)-w/2, 60, 22, rl.Yellow)
	}

	g.drawPoolGauge(16, 76, "rocks",
		g.entities.Count(components.KindFragment), g.entities.Cap(components.KindFragment))
	g.drawPoolGauge(16, 96, "shots",
		g.entities.Count(components.KindProjectile), g.entities.Cap(components.KindProjectile))

	lineage := g.fracture.Lineage().Stats()
	rl.DrawText(fmt.Sprintf("lineages %d  gen %d", lineage.DistinctSignatures, lineage.MaxGeneration),
		16, 120, 16, rl.Gray)

	// Control panel, bottom-left.
	panelY := g.camera.ViewportH - 44
	label := "Pause"
	if g.paused {
		label = "Resume"
	}
	if gui.Button(rl.Rectangle{X: 16, Y: panelY, Width: 80, Height: 28}, label) {
		g.paused = !g.paused
	}
	speed := gui.SliderBar(
		rl.Rectangle{X: 150, Y: panelY, Width: 140, Height: 28},
		"speed", fmt.Sprintf("%dx", g.stepsPerUpdate),
		float32(g.stepsPerUpdate), 1, 10)
	g.stepsPerUpdate = int(speed + 0.5)
	if g.stepsPerUpdate < 1 {
		g.stepsPerUpdate = 1
	}

	if g.debugMode {
		g.drawStatusPanel()
	}
	rl.DrawFPS(int32(g.camera.ViewportW)-90, 12)
}

// drawPoolGauge draws one pool utilization bar.
func (g *Game) drawPoolGauge(x, y int32, label string, used, capacity int) {
	const barW = 110
	fill := int32(0)
	if capacity > 0 {
		fill = int32(barW * used / capacity)
	}
	rl.DrawText(label, x, y, 14, rl.Gray)
	rl.DrawRectangleLines(x+50, y+2, barW, 10, rl.Gray)
	rl.DrawRectangle(x+50, y+2, fill, 10, rl.Color{R: 120, G: 200, B: 120, A: 255})
}

// drawStatusPanel dumps every system's diagnostic counters.
func (g *Game) drawStatusPanel() {
	y := int32(150)
	for _, st := range g.Statuses() {
		rl.DrawText(g.registry.GetName(st.Name), 16, y, 14, rl.SkyBlue)
		y += 16
		for _, key := range sortedKeys(st.Counts) {
			rl.DrawText(fmt.Sprintf("  %s: %d", key, st.Counts[key]), 16, y, 12, rl.Gray)
			y += 13
		}
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Insertion sort; status maps are tiny.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}
