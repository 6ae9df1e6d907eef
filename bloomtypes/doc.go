// Copyright 2024 The Bloomevm Authors
// This file is part of Bloomevm.
//
// Bloomevm is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Bloomevm is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Bloomevm. If not, see <http://www.gnu.org/licenses/>.

// Package bloomtypes holds the wire types shared by every layer of the
// node: addresses, hashes, headers, blocks and transactions.
package bloomtypes
