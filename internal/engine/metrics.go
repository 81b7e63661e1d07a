package engine

import "expvar"

// One int counter per distinct thing that can happen to a packet, so a
// /debug/vars scrape tells an operator the shape of the traffic the
// crawler is seeing without touching a debugger.
var (
	totalRecv              = expvar.NewInt("dhtcrawl.totalRecv")
	totalDroppedPackets    = expvar.NewInt("dhtcrawl.totalDroppedPackets")
	totalSentPing          = expvar.NewInt("dhtcrawl.totalSentPing")
	totalSentFindNode      = expvar.NewInt("dhtcrawl.totalSentFindNode")
	totalRecvFindNode      = expvar.NewInt("dhtcrawl.totalRecvFindNode")
	totalRecvFindNodeReply = expvar.NewInt("dhtcrawl.totalRecvFindNodeReply")
	totalRecvGetPeers      = expvar.NewInt("dhtcrawl.totalRecvGetPeers")
	totalRecvAnnouncePeer  = expvar.NewInt("dhtcrawl.totalRecvAnnouncePeer")
	totalAnnouncesEnqueued = expvar.NewInt("dhtcrawl.totalAnnouncesEnqueued")
	totalAnnouncesDropped  = expvar.NewInt("dhtcrawl.totalAnnouncesDropped")
	totalNodesAccepted     = expvar.NewInt("dhtcrawl.totalNodesAccepted")
	totalNodesRejected     = expvar.NewInt("dhtcrawl.totalNodesRejected")
	totalMetadataFetched   = expvar.NewInt("dhtcrawl.totalMetadataFetched")
)
