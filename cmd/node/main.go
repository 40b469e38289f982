// cmd/node runs a single Raft participant with a gRPC transport and the
// in-memory key-value state machine, and offers a REPL for submitting
// commands directly against whichever node it's pointed at. Grounded on
// the teacher's cmd/server/main.go (flag-based config, bufio.Scanner
// REPL over PUT/GET/DELETE/STATS/QUIT).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"raftcore/cluster"
	"raftcore/persistence"
	"raftcore/raft"
	"raftcore/statemachine"
)

func main() {
	id := flag.Uint64("id", 0, "this node's id")
	addr := flag.String("addr", ":9090", "address this node listens on")
	peersFlag := flag.String("peers", "", "comma-separated peer list, id=address,id=address,...")
	dataDir := flag.String("data", "./data", "directory for the durable state checkpoint")
	flag.Parse()

	peers, err := parsePeers(*peersFlag)
	if err != nil {
		log.Fatalf("invalid -peers: %v", err)
	}

	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}
	store, err := persistence.NewStore(filepath.Join(*dataDir, fmt.Sprintf("node-%d.state", *id)))
	if err != nil {
		log.Fatalf("failed to open durable store: %v", err)
	}
	defer store.Close()

	sm := statemachine.NewKVStateMachine()

	grpcCluster := cluster.New(cluster.Config{
		SelfID: raft.NodeID(*id),
		Peers:  peers,
	})

	node := raft.NewNode(raft.Config{
		ID:           raft.NodeID(*id),
		StateMachine: sm,
		Store:        store,
	})

	grpcCluster.AttachNode(node)
	node.Configure(grpcCluster)

	if err := grpcCluster.Serve(*addr); err != nil {
		log.Fatalf("failed to start gRPC listener: %v", err)
	}
	defer grpcCluster.Close()

	node.Run()
	defer node.Stop()

	log.Printf("Raft node %d listening on %s", *id, *addr)
	log.Println("Enter commands: PUT <key> <value>, GET <key>, DELETE <key>, STATE, QUIT")

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToUpper(parts[0])

		switch cmd {
		case "PUT":
			if len(parts) < 3 {
				fmt.Println("Usage: PUT <key> <value>")
				continue
			}
			submit(node, statemachine.Command{
				Type:  statemachine.CommandPut,
				Key:   parts[1],
				Value: []byte(strings.Join(parts[2:], " ")),
			})

		case "GET":
			if len(parts) != 2 {
				fmt.Println("Usage: GET <key>")
				continue
			}
			submit(node, statemachine.Command{Type: statemachine.CommandGet, Key: parts[1]})

		case "DELETE":
			if len(parts) != 2 {
				fmt.Println("Usage: DELETE <key>")
				continue
			}
			submit(node, statemachine.Command{Type: statemachine.CommandDelete, Key: parts[1]})

		case "STATE":
			term, isLeader := node.GetState()
			fmt.Printf("term=%d leader=%v\n", term, isLeader)

		case "QUIT", "EXIT":
			fmt.Println("Shutting down...")
			return

		default:
			fmt.Println("Unknown command. Available: PUT, GET, DELETE, STATE, QUIT")
		}
	}

	if err := scanner.Err(); err != nil {
		log.Fatalf("error reading input: %v", err)
	}
}

func submit(node *raft.Node, cmd statemachine.Command) {
	value, err := node.MakeRequest(cmd.Encode())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	raw, ok := value.([]byte)
	if !ok {
		fmt.Printf("Error: unexpected result type %T\n", value)
		return
	}
	result, err := statemachine.DecodeResult(raw)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if !result.OK {
		fmt.Printf("Error: %s\n", result.Error)
		return
	}
	if result.Value != nil {
		fmt.Printf("%s\n", result.Value)
	} else {
		fmt.Println("OK")
	}
}

func parsePeers(s string) ([]cluster.Peer, error) {
	if s == "" {
		return nil, nil
	}
	var peers []cluster.Peer
	for _, entry := range strings.Split(s, ",") {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed peer entry %q, want id=address", entry)
		}
		id, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed peer id %q: %w", parts[0], err)
		}
		peers = append(peers, cluster.Peer{ID: raft.NodeID(id), Address: parts[1]})
	}
	return peers, nil
}
