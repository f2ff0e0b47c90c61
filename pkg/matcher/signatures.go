package matcher

// Signature describes how free text indicates one known algorithm.
// Keywords are strong indicators, phrases are supporting evidence, and any
// exclusion present in the text zeroes the candidate outright.
type Signature struct {
	ID       string
	Name     string
	Category string
	Keywords []string
	Phrases  []string
	Exclude  []string
	Weight   float64
}

// DefaultSignatures is the curated signature database. Order matters:
// ties at equal score resolve to the earlier entry.
var DefaultSignatures = []Signature{
	// Sorting
	{
		ID:       "quicksort",
		Name:     "QuickSort",
		Category: "sorting",
		Keywords: []string{"quicksort", "quick sort", "quick-sort", "pivot", "partition"},
		Phrases:  []string{"divide and conquer sort", "in-place sorting", "pivot element", "partition array"},
		Exclude:  []string{"merge", "heap", "bubble", "insertion"},
		Weight:   1.0,
	},
	{
		ID:       "mergesort",
		Name:     "MergeSort",
		Category: "sorting",
		Keywords: []string{"mergesort", "merge sort", "merge-sort"},
		Phrases:  []string{"divide and conquer", "merge two sorted", "split and merge"},
		Exclude:  []string{"quick", "heap", "bubble"},
		Weight:   1.0,
	},
	{
		ID:       "heapsort",
		Name:     "HeapSort",
		Category: "sorting",
		Keywords: []string{"heapsort", "heap sort", "heap-sort", "heapify"},
		Phrases:  []string{"build heap", "extract max", "heap property"},
		Exclude:  []string{"quick", "merge", "bubble"},
		Weight:   1.0,
	},
	{
		ID:       "bubblesort",
		Name:     "BubbleSort",
		Category: "sorting",
		Keywords: []string{"bubblesort", "bubble sort", "bubble-sort"},
		Phrases:  []string{"adjacent elements", "swap adjacent", "bubble up"},
		Exclude:  []string{"quick", "merge", "heap"},
		Weight:   0.9,
	},
	{
		ID:       "insertionsort",
		Name:     "InsertionSort",
		Category: "sorting",
		Keywords: []string{"insertionsort", "insertion sort", "insertion-sort"},
		Phrases:  []string{"insert element", "sorted portion", "shift elements"},
		Exclude:  []string{"quick", "merge", "heap", "bubble"},
		Weight:   0.9,
	},
	{
		ID:       "selectionsort",
		Name:     "SelectionSort",
		Category: "sorting",
		Keywords: []string{"selectionsort", "selection sort", "selection-sort"},
		Phrases:  []string{"find minimum", "select minimum", "swap minimum"},
		Exclude:  []string{"quick", "merge", "heap"},
		Weight:   0.9,
	},

	// Searching
	{
		ID:       "binary_search",
		Name:     "Binary Search",
		Category: "searching",
		Keywords: []string{"binary search", "binarysearch", "binary-search", "bisect"},
		Phrases:  []string{"search sorted array", "divide in half", "log n search", "find in sorted"},
		Exclude:  []string{"tree", "bst"},
		Weight:   1.0,
	},
	{
		ID:       "linear_search",
		Name:     "Linear Search",
		Category: "searching",
		Keywords: []string{"linear search", "sequential search", "linearsearch"},
		Phrases:  []string{"search one by one", "iterate through", "find element"},
		Exclude:  []string{"binary", "tree"},
		Weight:   0.8,
	},

	// Graph
	{
		ID:       "bfs",
		Name:     "Breadth-First Search",
		Category: "graph",
		Keywords: []string{"bfs", "breadth first", "breadth-first", "level order"},
		Phrases:  []string{"level by level", "queue based", "shortest path unweighted", "explore neighbors"},
		Exclude:  []string{"dfs", "depth"},
		Weight:   1.0,
	},
	{
		ID:       "dfs",
		Name:     "Depth-First Search",
		Category: "graph",
		Keywords: []string{"dfs", "depth first", "depth-first"},
		Phrases:  []string{"go deep", "stack based", "backtracking", "explore path"},
		Exclude:  []string{"bfs", "breadth"},
		Weight:   1.0,
	},
	{
		ID:       "dijkstra",
		Name:     "Dijkstra's Algorithm",
		Category: "graph",
		Keywords: []string{"dijkstra", "dijkstras", "dijkstra's"},
		Phrases:  []string{"shortest path", "weighted graph", "minimum distance", "priority queue"},
		Exclude:  []string{"bellman", "floyd", "negative"},
		Weight:   1.0,
	},
	{
		ID:       "bellman_ford",
		Name:     "Bellman-Ford Algorithm",
		Category: "graph",
		Keywords: []string{"bellman", "bellman-ford", "bellmanford"},
		Phrases:  []string{"negative weight", "relax edges", "detect negative cycle"},
		Exclude:  []string{"dijkstra", "floyd"},
		Weight:   1.0,
	},
	{
		ID:       "floyd_warshall",
		Name:     "Floyd-Warshall Algorithm",
		Category: "graph",
		Keywords: []string{"floyd", "warshall", "floyd-warshall", "floydwarshall"},
		Phrases:  []string{"all pairs shortest", "dynamic programming graph"},
		Exclude:  []string{"dijkstra", "bellman"},
		Weight:   1.0,
	},
	{
		ID:       "kruskal",
		Name:     "Kruskal's MST",
		Category: "graph",
		Keywords: []string{"kruskal", "kruskals", "kruskal's"},
		Phrases:  []string{"minimum spanning tree", "mst", "union find", "sort edges"},
		Exclude:  []string{"prim"},
		Weight:   1.0,
	},
	{
		ID:       "prim",
		Name:     "Prim's MST",
		Category: "graph",
		Keywords: []string{"prim", "prims", "prim's"},
		Phrases:  []string{"minimum spanning tree", "mst", "grow tree", "nearest vertex"},
		Exclude:  []string{"kruskal"},
		Weight:   1.0,
	},
	{
		ID:       "topological_sort",
		Name:     "Topological Sort",
		Category: "graph",
		Keywords: []string{"topological", "topo sort", "toposort"},
		Phrases:  []string{"directed acyclic", "dag", "dependency order", "prerequisite"},
		Weight:   1.0,
	},

	// Dynamic programming
	{
		ID:       "fibonacci",
		Name:     "Fibonacci Sequence",
		Category: "dp",
		Keywords: []string{"fibonacci", "fib"},
		Phrases:  []string{"nth fibonacci", "fibonacci number", "f(n) = f(n-1) + f(n-2)"},
		Weight:   1.0,
	},
	{
		ID:       "knapsack",
		Name:     "0/1 Knapsack",
		Category: "dp",
		Keywords: []string{"knapsack", "0/1 knapsack", "01 knapsack"},
		Phrases:  []string{"maximum value", "weight capacity", "include or exclude"},
		Weight:   1.0,
	},
	{
		ID:       "lcs",
		Name:     "Longest Common Subsequence",
		Category: "dp",
		Keywords: []string{"lcs", "longest common subsequence"},
		Phrases:  []string{"common subsequence", "two strings", "subsequence match"},
		Exclude:  []string{"substring", "lis"},
		Weight:   1.0,
	},
	{
		ID:       "lis",
		Name:     "Longest Increasing Subsequence",
		Category: "dp",
		Keywords: []string{"lis", "longest increasing subsequence"},
		Phrases:  []string{"increasing order", "subsequence increasing"},
		Exclude:  []string{"lcs", "common"},
		Weight:   1.0,
	},
	{
		ID:       "edit_distance",
		Name:     "Edit Distance",
		Category: "dp",
		Keywords: []string{"edit distance", "levenshtein"},
		Phrases:  []string{"minimum operations", "insert delete replace", "transform string"},
		Weight:   1.0,
	},
	{
		ID:       "coin_change",
		Name:     "Coin Change",
		Category: "dp",
		Keywords: []string{"coin change", "coins"},
		Phrases:  []string{"minimum coins", "make change", "coin denominations"},
		Weight:   1.0,
	},
	{
		ID:       "longest_palindrome",
		Name:     "Longest Palindromic Substring",
		Category: "dp",
		Keywords: []string{"palindrome", "palindromic"},
		Phrases:  []string{"longest palindrome", "palindromic substring", "expand around center"},
		Weight:   1.0,
	},

	// String
	{
		ID:       "kmp",
		Name:     "KMP Pattern Matching",
		Category: "string",
		Keywords: []string{"kmp", "knuth morris pratt"},
		Phrases:  []string{"pattern matching", "failure function", "prefix function"},
		Exclude:  []string{"rabin", "z-algorithm"},
		Weight:   1.0,
	},
	{
		ID:       "rabin_karp",
		Name:     "Rabin-Karp",
		Category: "string",
		Keywords: []string{"rabin", "rabin-karp", "rabinkarp"},
		Phrases:  []string{"rolling hash", "hash pattern", "string hashing"},
		Exclude:  []string{"kmp"},
		Weight:   1.0,
	},
	{
		ID:       "trie",
		Name:     "Trie Operations",
		Category: "string",
		Keywords: []string{"trie", "prefix tree"},
		Phrases:  []string{"prefix search", "autocomplete", "word dictionary"},
		Weight:   1.0,
	},

	// Data structures
	{
		ID:       "bst",
		Name:     "Binary Search Tree",
		Category: "data_structure",
		Keywords: []string{"bst", "binary search tree"},
		Phrases:  []string{"insert node", "delete node", "search tree", "inorder traversal"},
		Exclude:  []string{"avl", "red-black"},
		Weight:   1.0,
	},
	{
		ID:       "heap_operations",
		Name:     "Heap Operations",
		Category: "data_structure",
		Keywords: []string{"heap", "priority queue", "min heap", "max heap"},
		Phrases:  []string{"insert heap", "extract min", "extract max", "heapify"},
		Exclude:  []string{"heapsort"},
		Weight:   1.0,
	},
	{
		ID:       "hash_table",
		Name:     "Hash Table",
		Category: "data_structure",
		Keywords: []string{"hash table", "hashmap", "hash map", "dictionary"},
		Phrases:  []string{"hash function", "collision", "key value"},
		Weight:   0.9,
	},

	// Classic problems
	{
		ID:       "two_sum",
		Name:     "Two Sum",
		Category: "classic",
		Keywords: []string{"two sum", "twosum", "2sum"},
		Phrases:  []string{"find two numbers", "target sum", "indices of two", "pair that adds"},
		Exclude:  []string{"three sum", "3sum"},
		Weight:   1.0,
	},
	{
		ID:       "three_sum",
		Name:     "Three Sum",
		Category: "classic",
		Keywords: []string{"three sum", "threesum", "3sum"},
		Phrases:  []string{"three numbers", "triplets", "sum to zero"},
		Exclude:  []string{"two sum"},
		Weight:   1.0,
	},
	{
		ID:       "sliding_window",
		Name:     "Sliding Window",
		Category: "technique",
		Keywords: []string{"sliding window", "window"},
		Phrases:  []string{"fixed window", "variable window", "maximum sum subarray"},
		Weight:   0.9,
	},
	{
		ID:       "two_pointer",
		Name:     "Two Pointer Technique",
		Category: "technique",
		Keywords: []string{"two pointer", "two pointers"},
		Phrases:  []string{"left right pointer", "start end", "converging pointers"},
		Weight:   0.9,
	},
}
