// Package types define los enums de dominio y sus tablas de comportamiento.
//
// Cada enum es un string con constantes y una tabla de lookup (rol → permisos,
// plan → límites, status → accesibilidad). El comportamiento se expresa como
// funciones puras sobre esas tablas, nunca como estado global mutable.
package types
