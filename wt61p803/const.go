package wt61p803

// Command set of the WT61P803 PUZZLE board-management MCU.
// Frames are mostly ASCII so they can be eyeballed on a serial sniffer.
const (
	CmdHeaderStart Command = 0x40 // '@'

	CmdTemp    Command = 0x54 // 'T'
	CmdTempAll Command = 0x41 // 'A'

	CmdFan         Command = 0x46 // 'F'
	CmdFanPWMRead  Command = 0x55 // 'U'
	CmdFanPWMWrite Command = 0x57 // 'W'

	CmdResponseOK      Command = 0x30 // '0'
	ChecksumResponseOK Command = 0x70 // CmdHeaderStart + CmdResponseOK
)

const (
	// BufSize is the maximum MCU frame length, requests and replies alike.
	BufSize = 20

	// NumPWM is the number of PWM outputs driving fans.
	NumPWM = 2
	// NumFan is the number of fan tachometer channels the MCU reports.
	NumFan = 5
	// NumTemp is the number of NTC temperature sensors.
	NumTemp = 2

	// MaxPWM is the maximum PWM duty value.
	MaxPWM = 255
)

const (
	cmdFanRPMBase Command = 0x41 // 'A' + channel
	cmdFanPWMBase Command = 0x30 // '0' + channel
)

// CmdFanRPM returns the per-channel fan tachometer verb.
func CmdFanRPM(channel int) Command {
	return cmdFanRPMBase + Command(channel)
}

// CmdFanPWM returns the per-channel PWM selector byte.
func CmdFanPWM(channel int) Command {
	return cmdFanPWMBase + Command(channel)
}
