package types

// Inbound addresses (collaborator -> orchestrator).
const (
	AddrInitialize       = "/system/initialize"
	AddrPushApSet        = "/btnmonitor/push/apset"
	AddrPushRecord       = "/btnmonitor/push/recbtn"
	AddrPushPlay         = "/btnmonitor/push/playbtn"
	AddrPushVolumeUp     = "/btnmonitor/push/volupbtn"
	AddrPushVolumeDown   = "/btnmonitor/push/voldownbtn"
	AddrPushEffect       = "/btnmonitor/push/effectbtn"
	AddrPushTuning       = "/btnmonitor/push/tuningbtn"
	AddrPushShutdown     = "/btnmonitor/push/shutdownbtn"
	AddrApConfigured     = "/ap_configurator/configure/configured"
	AddrPeerInitFinished = "/pd_initializer/initialize/finished"
	AddrRecordStopped    = "/recorder/record/stopped"
	AddrPlayStopped      = "/player/playback/stopped"
	AddrTuneStopped      = "/tuner/tune/stopped"
	AddrTuneCondition    = "/tuner/tune/cond"
	AddrUploadStarted    = "/uploader/upload/started"
	AddrUploadStopped    = "/uploader/upload/stopped"
	AddrDownloadStopped  = "/downloader/download/stopped"
)

// Outbound service addresses (orchestrator -> collaborator).
const (
	AddrRecordStart  = "/recorder/record/start"
	AddrRecordStop   = "/recorder/record/stop"
	AddrPlayStart    = "/player/playback/start"
	AddrPlayStop     = "/player/playback/stop"
	AddrTuneStart    = "/tuner/tune/start"
	AddrTuneStop     = "/tuner/tune/stop"
	AddrEffectToggle = "/effector/effect/toggle"
	AddrVolumeUp     = "/audio_out/volume/up"
	AddrVolumeDown   = "/audio_out/volume/down"
	AddrUploadStart  = "/uploader/upload/start"
)

// LED directives (orchestrator -> LED controller).
// The LED controller names the yellow LED "orange" on the wire.
const (
	AddrLEDRedOff          = "/led/red/off"
	AddrLEDRedOn           = "/led/red/on"
	AddrLEDGreenOff        = "/led/green/off"
	AddrLEDGreenOn         = "/led/green/on"
	AddrLEDGreenBlink      = "/led/green/blink"
	AddrLEDYellowOff       = "/led/orange/off"
	AddrLEDYellowOn        = "/led/orange/on"
	AddrLEDYellowBlink     = "/led/orange/blink"
	AddrLEDYellowBlinkFast = "/led/orange/blink/fast"
	AddrLEDBlinkRedGreen   = "/led/blink/red/green"
)
