package core

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const uuidNamespaceSeed = "vehicle_signal_specification"

var uuidNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte(uuidNamespaceSeed))

// NodeUUID derives the identifier of a node from its FQN. The result is the
// 32 character lowercase hex form without dashes.
func NodeUUID(fqn string) string {
	id := uuid.NewSHA1(uuidNamespace, []byte(fqn))
	return hex.EncodeToString(id[:])
}

// AssignUUIDs recomputes the UUID of every node below root. It has to run
// after every structural change because FQNs may have moved.
func AssignUUIDs(ctx context.Context, root *Node) error {
	seen := map[string]string{}
	for _, node := range root.Nodes() {
		fqn := node.FQN()
		id := NodeUUID(fqn)
		if other, ok := seen[id]; ok {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("uuid collision between %s and %s", other, fqn))
		}
		seen[id] = fqn
		node.UUID = id
	}
	log.Ctx(ctx).Debug().Int("nodes", len(seen)).Msg("uuids assigned")
	return nil
}
