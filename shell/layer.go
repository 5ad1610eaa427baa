package shell

import (
	"fmt"

	"github.com/mstarongithub/wayspace/output"
	"github.com/mstarongithub/wayspace/space"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/sirupsen/logrus"
)

// NewLayerSurface maps l on o, or on the output under the pointer if the client left it open
func (sh *Shell) NewLayerSurface(l wl.LayerSurface, o *output.Output) {
	if o == nil {
		var ok bool
		if o, ok = sh.outputUnderPointer(); !ok {
			logrus.WithField("namespace", l.Namespace()).Debugln("No output for layer surface, closing it")
			l.SendClose()
			return
		}
	}
	logrus.WithFields(logrus.Fields{"namespace": l.Namespace(), "output": o.Name()}).Infoln("New layer surface")
	space.LayerMapFor(o).Map(l)
}

// RequestActivation raises the window of s if token was handed out recently enough.
// Tokens are single use
func (sh *Shell) RequestActivation(token string, s wl.Surface) {
	created, ok := sh.activation[token]
	if !ok {
		logrus.WithField("token", token).Debugln("Unknown activation token")
		return
	}
	delete(sh.activation, token)
	if sh.clock().Sub(created) >= sh.activationTimeout {
		logrus.WithField("token", token).Debugln("Activation token expired")
		return
	}
	w := sh.windowForSurface(s)
	if w == nil {
		return
	}
	sh.focusWindow(w, sh.seat.NextSerial())
}

// NewActivationToken hands out a token a launched client can activate itself with
func (sh *Shell) NewActivationToken() string {
	sh.nextToken++
	token := fmt.Sprintf("wayspace-%d-%d", sh.clock().UnixNano(), sh.nextToken)
	sh.activation[token] = sh.clock()
	return token
}
