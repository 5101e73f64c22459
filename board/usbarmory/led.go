// https://github.com/usbarmory/loconet
//
// Copyright (c) The loconet Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.
//
//go:build tamago

package usbarmory

import (
	"github.com/usbarmory/tamago/soc/nxp/gpio"
	"github.com/usbarmory/tamago/soc/nxp/imx6ul"
	"github.com/usbarmory/tamago/soc/nxp/iomuxc"

	"github.com/usbarmory/loconet/loconet/internal/bits"
)

// USB armory Mk II blue LED, pad CSI_DATA01 / GPIO4_IO22, reused here as
// the "data on LocoNet" indicator (the original PIC18 firmware's
// LATAbits.LATA5, toggled around every received and transmitted frame).
const (
	blueLEDPin                     = 22
	iomuxMuxCtlPadCSIData01 uint32 = 0x020e01e8
	iomuxPadCtlPadCSIData01 uint32 = 0x020e0474
	gpioMode                       = 5
)

// led drives the USB armory Mk II's blue LED as a loconet.Indicator. The
// GPIO is active-low.
type led struct {
	pin *gpio.Pin
}

func newLED() *led {
	pin, err := imx6ul.GPIO4.Init(blueLEDPin)
	if err != nil {
		panic(err)
	}

	pin.Out()

	var ctl uint32
	bits.Set(&ctl, iomuxc.SW_PAD_CTL_PKE)
	bits.SetN(&ctl, iomuxc.SW_PAD_CTL_SPEED, 0b11, iomuxc.SW_PAD_CTL_SPEED_100MHZ)
	bits.SetN(&ctl, iomuxc.SW_PAD_CTL_DSE, 0b111, iomuxc.SW_PAD_CTL_DSE_2_R0_6)

	p := iomuxc.Init(iomuxMuxCtlPadCSIData01, iomuxPadCtlPadCSIData01, gpioMode)
	p.Ctl(ctl)

	pin.High()

	return &led{pin: pin}
}

func (l *led) Set(on bool) {
	if on {
		l.pin.Low()
	} else {
		l.pin.High()
	}
}
