package blockchain

// escrowABIJSON is the observable contract surface consumed per spec.md
// §6.2. The server does not own this contract's semantics; it binds only to
// the methods and events named there.
const escrowABIJSON = `[
	{
		"type": "event",
		"name": "GameCreated",
		"inputs": [
			{"name": "gameId", "type": "string", "indexed": false},
			{"name": "gameIdHash", "type": "bytes32", "indexed": true},
			{"name": "creator", "type": "address", "indexed": true},
			{"name": "wagerAmount", "type": "uint256", "indexed": false}
		],
		"anonymous": false
	},
	{
		"type": "event",
		"name": "GameJoined",
		"inputs": [
			{"name": "gameId", "type": "string", "indexed": false},
			{"name": "gameIdHash", "type": "bytes32", "indexed": true},
			{"name": "joiner", "type": "address", "indexed": true},
			{"name": "wagerAmount", "type": "uint256", "indexed": false}
		],
		"anonymous": false
	},
	{
		"type": "event",
		"name": "GameSettled",
		"inputs": [
			{"name": "gameIdHash", "type": "bytes32", "indexed": true},
			{"name": "winner", "type": "address", "indexed": true},
			{"name": "totalWinnings", "type": "uint256", "indexed": false}
		],
		"anonymous": false
	},
	{
		"type": "function",
		"name": "getGame",
		"stateMutability": "view",
		"inputs": [{"name": "gameId", "type": "string"}],
		"outputs": [
			{
				"name": "",
				"type": "tuple",
				"components": [
					{"name": "creator", "type": "address"},
					{"name": "opponent", "type": "address"},
					{"name": "wagerAmount", "type": "uint256"},
					{"name": "settled", "type": "bool"}
				]
			}
		]
	},
	{
		"type": "function",
		"name": "settleGame",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "gameId", "type": "string"},
			{"name": "winner", "type": "address"}
		],
		"outputs": []
	}
]`
