package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// handleInput translates keyboard and mouse state into intents and
// viewer controls. Simulation state is only touched through Apply.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeyP) {
		g.paused = !g.paused
	}
	if rl.IsKeyPressed(rl.KeyF1) {
		g.debugMode = !g.debugMode
	}
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < 10 {
		g.stepsPerUpdate++
	}

	// Flight controls.
	turn := float32(0)
	if rl.IsKeyDown(rl.KeyLeft) || rl.IsKeyDown(rl.KeyA) {
		turn -= 1
	}
	if rl.IsKeyDown(rl.KeyRight) || rl.IsKeyDown(rl.KeyD) {
		turn += 1
	}
	thrust := float32(0)
	if rl.IsKeyDown(rl.KeyUp) || rl.IsKeyDown(rl.KeyW) {
		thrust = 1
	}
	if turn != 0 || thrust != 0 {
		g.Apply(ThrustIntent{Thrust: thrust, Turn: turn})
	}
	if rl.IsKeyDown(rl.KeySpace) {
		g.Apply(FireIntent{}) // rate limiting makes holding the key safe
	}

	g.handleCameraInput()
}

// handleCameraInput drives pan, zoom, and ship following.
func (g *Game) handleCameraInput() {
	if rl.IsKeyPressed(rl.KeyC) {
		g.followShip = !g.followShip
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
		g.followShip = true
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		delta := rl.GetMouseDelta()
		g.camera.Pan(-delta.X, -delta.Y)
		g.followShip = false
	}

	if g.followShip && g.entities.Live(g.ship) {
		if pos := g.entities.Pos(g.ship); pos != nil {
			g.camera.Follow(pos.X, pos.Y)
		}
	}
}

// handleResize propagates window size changes to the camera.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	g.camera.Resize(float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight()))
}
