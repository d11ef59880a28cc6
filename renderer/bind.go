// renderer/bind.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

// The device has a single current program, texture unit, set of texture
// bindings, and framebuffer. The functions here make a temporary binding
// and return a function that puts back whatever was bound before; the
// usual pattern is
//
//	defer UseProgram(dev, p)()

// UseProgram makes p the current program.
func UseProgram(dev Device, p ProgramID) (restore func()) {
	prev := dev.CurrentProgram()
	dev.UseProgram(p)
	return func() { dev.UseProgram(prev) }
}

// BindTextureUnit binds tex to target on the given texture unit and
// makes that unit active.
func BindTextureUnit(dev Device, unit int, target TextureTarget, tex TextureID) (restore func()) {
	prevUnit := dev.CurrentTextureUnit()
	dev.ActiveTexture(unit)
	prevTex := dev.TextureBinding(target)
	dev.BindTexture(target, tex)
	return func() {
		dev.ActiveTexture(unit)
		dev.BindTexture(target, prevTex)
		dev.ActiveTexture(prevUnit)
	}
}

// BindTexture binds tex to target on the active texture unit.
func BindTexture(dev Device, target TextureTarget, tex TextureID) (restore func()) {
	prev := dev.TextureBinding(target)
	dev.BindTexture(target, tex)
	return func() { dev.BindTexture(target, prev) }
}

// BindFramebuffer binds fb and sets the viewport to the given size.
func BindFramebuffer(dev Device, fb FramebufferID, width, height int) (restore func()) {
	prevFB, prevVP := dev.FramebufferBinding(), dev.CurrentViewport()
	dev.BindFramebuffer(fb)
	dev.Viewport(0, 0, int32(width), int32(height))
	return func() {
		dev.BindFramebuffer(prevFB)
		dev.Viewport(prevVP[0], prevVP[1], prevVP[2], prevVP[3])
	}
}

// SetBlendFunc sets the source and destination blend factors.
func SetBlendFunc(dev Device, src, dst BlendFactor) (restore func()) {
	prevSrc, prevDst := dev.CurrentBlendFunc()
	dev.BlendFunc(src, dst)
	return func() { dev.BlendFunc(prevSrc, prevDst) }
}

// SetCapability enables or disables c.
func SetCapability(dev Device, c Capability, enable bool) (restore func()) {
	was := dev.IsEnabled(c)
	if enable {
		dev.Enable(c)
	} else {
		dev.Disable(c)
	}
	return func() {
		if was {
			dev.Enable(c)
		} else {
			dev.Disable(c)
		}
	}
}
