// Package rtp streams filtered audio as uncompressed L16 RTP.
//
// This package lets a monitor listen to the output of the noise suppression
// filter from another process or machine. Blocks are interleaved, converted
// to 16-bit big-endian PCM (RFC 3551 L16) and wrapped in RTP packets with the
// pion/rtp library.
//
// # Sending
//
//	conn, err := net.Dial("udp", "127.0.0.1:5004")
//	if err != nil {
//	    return err
//	}
//	packetizer, err := rtp.NewL16Packetizer(conn, 2)
//	if err != nil {
//	    return err
//	}
//
//	for block := range filtered {
//	    if err := packetizer.SendBlock(block); err != nil {
//	        log.Println(err)
//	    }
//	}
//
// Each block is split on frame boundaries so no packet payload exceeds
// MaxPayloadBytes. The RTP timestamp advances by one per frame.
//
// # Receiving
//
//	depacketizer, err := rtp.NewL16Depacketizer(2)
//	planes, timestamp, err := depacketizer.ProcessPacket(datagram)
//
// The depacketizer locks onto the first SSRC it sees and counts sequence
// gaps; it does no reordering.
//
// # Payload Type
//
// L16 has static payload types only for 44.1 kHz, so packets use the
// dynamic payload type 96 and receivers must be told the rate and channel
// count out of band (for example with an SDP rtpmap "L16/48000/2").
package rtp
